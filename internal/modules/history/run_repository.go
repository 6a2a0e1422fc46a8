package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunRecord is one completed optimization run. Payload is an opaque
// msgpack-encoded result owned by the pipeline; this repository only stores
// and retrieves it.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Sampler   string
	Payload   []byte
}

// RunRepository persists completed optimization runs.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a run repository and ensures its schema.
func NewRunRepository(db *sql.DB, log zerolog.Logger) (*RunRepository, error) {
	repo := &RunRepository{
		db:  db,
		log: log.With().Str("component", "history.runs").Logger(),
	}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *RunRepository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			sampler    TEXT NOT NULL,
			payload    BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// Save stores a run record.
func (r *RunRepository) Save(record RunRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, created_at, sampler, payload) VALUES (?, ?, ?, ?)
	`, record.ID, record.CreatedAt.UTC(), record.Sampler, record.Payload)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}
	r.log.Debug().Str("run_id", record.ID).Msg("Stored optimization run")
	return nil
}

// Get returns a run by id, or (nil, nil) when it does not exist.
func (r *RunRepository) Get(id string) (*RunRecord, error) {
	var record RunRecord
	err := r.db.QueryRow(`
		SELECT id, created_at, sampler, payload FROM runs WHERE id = ?
	`, id).Scan(&record.ID, &record.CreatedAt, &record.Sampler, &record.Payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	return &record, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT id, created_at, sampler, payload FROM runs
		ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		if err := rows.Scan(&record.ID, &record.CreatedAt, &record.Sampler, &record.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
