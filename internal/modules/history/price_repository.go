// Package history persists fetched price series and completed optimization
// runs in the local SQLite cache.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// PriceRepository caches daily close series per symbol so repeated runs and
// scheduled refreshes do not hammer the upstream providers.
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a price repository and ensures its schema.
func NewPriceRepository(db *sql.DB, log zerolog.Logger) (*PriceRepository, error) {
	repo := &PriceRepository{
		db:  db,
		log: log.With().Str("component", "history.prices").Logger(),
	}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PriceRepository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_history (
			symbol     TEXT PRIMARY KEY,
			period     TEXT NOT NULL,
			closes     BLOB NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create price_history table: %w", err)
	}
	return nil
}

// Save stores a close series for a symbol, replacing any previous entry.
func (r *PriceRepository) Save(symbol, period string, closes []float64) error {
	blob, err := msgpack.Marshal(closes)
	if err != nil {
		return fmt.Errorf("failed to encode closes for %s: %w", symbol, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO price_history (symbol, period, closes, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			period = excluded.period,
			closes = excluded.closes,
			fetched_at = excluded.fetched_at
	`, symbol, period, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save price history for %s: %w", symbol, err)
	}

	r.log.Debug().Str("symbol", symbol).Int("points", len(closes)).Msg("Cached price history")
	return nil
}

// Get returns the cached series for a symbol when it matches the period and
// is newer than maxAge. A cache miss returns (nil, nil).
func (r *PriceRepository) Get(symbol, period string, maxAge time.Duration) ([]float64, error) {
	var blob []byte
	var storedPeriod string
	var fetchedAt time.Time

	err := r.db.QueryRow(`
		SELECT period, closes, fetched_at FROM price_history WHERE symbol = ?
	`, symbol).Scan(&storedPeriod, &blob, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for %s: %w", symbol, err)
	}

	if storedPeriod != period || time.Since(fetchedAt) > maxAge {
		return nil, nil
	}

	var closes []float64
	if err := msgpack.Unmarshal(blob, &closes); err != nil {
		return nil, fmt.Errorf("failed to decode cached closes for %s: %w", symbol, err)
	}
	return closes, nil
}
