package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/history"
	"github.com/mfreitas/quantfolio/internal/modules/marketdata"
)

// priceRefreshTimeout bounds one refresh cycle across all tickers.
const priceRefreshTimeout = 5 * time.Minute

// PriceRefreshJob re-fetches daily closes for the configured tickers and
// rewrites the price cache so interactive runs start warm.
type PriceRefreshJob struct {
	market  *marketdata.Manager
	prices  *history.PriceRepository
	tickers []string
	period  string
	log     zerolog.Logger
}

// NewPriceRefreshJob creates a price refresh job.
func NewPriceRefreshJob(
	market *marketdata.Manager,
	prices *history.PriceRepository,
	tickers []string,
	period string,
	log zerolog.Logger,
) *PriceRefreshJob {
	return &PriceRefreshJob{
		market:  market,
		prices:  prices,
		tickers: tickers,
		period:  period,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run fetches fresh closes for every ticker. Individual ticker failures are
// logged and skipped; the job only fails when nothing could be refreshed.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), priceRefreshTimeout)
	defer cancel()

	prices, err := j.market.FetchUniverse(ctx, j.tickers, j.period)
	if err != nil {
		return err
	}

	refreshed := 0
	for symbol, closes := range prices {
		if err := j.prices.Save(symbol, j.period, closes); err != nil {
			j.log.Warn().Str("symbol", symbol).Err(err).Msg("Cache write failed")
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("requested", len(j.tickers)).
		Msg("Price cache refreshed")
	return nil
}
