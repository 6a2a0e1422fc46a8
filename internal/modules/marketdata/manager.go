package marketdata

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Manager fans a fetch out over registered providers with fallback ordering.
type Manager struct {
	providers []Provider
	log       zerolog.Logger
}

// NewManager creates a provider manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("component", "marketdata").Logger(),
	}
}

// AddProvider registers a provider. Providers are consulted highest
// priority first.
func (m *Manager) AddProvider(p Provider) {
	m.providers = append(m.providers, p)
	sort.SliceStable(m.providers, func(i, j int) bool {
		return m.providers[i].Priority() > m.providers[j].Priority()
	})
}

// Providers returns the registered providers in consultation order.
func (m *Manager) Providers() []Provider {
	out := make([]Provider, len(m.providers))
	copy(out, m.providers)
	return out
}

// FetchDailyCloses fetches closes for one symbol, falling through providers
// until one succeeds with at least two data points.
func (m *Manager) FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error) {
	if len(m.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers registered", ErrNoData)
	}

	var lastErr error
	for _, p := range m.providers {
		closes, err := p.FetchDailyCloses(ctx, symbol, period)
		if err != nil {
			m.log.Warn().
				Str("provider", p.Name()).
				Str("symbol", symbol).
				Err(err).
				Msg("Provider failed, trying next")
			lastErr = err
			continue
		}
		if len(closes) < 2 {
			m.log.Warn().
				Str("provider", p.Name()).
				Str("symbol", symbol).
				Int("points", len(closes)).
				Msg("Provider returned too little history, trying next")
			lastErr = fmt.Errorf("%w: %s returned %d points for %s", ErrNoData, p.Name(), len(closes), symbol)
			continue
		}

		m.log.Debug().
			Str("provider", p.Name()).
			Str("symbol", symbol).
			Int("points", len(closes)).
			Msg("Fetched price history")
		return closes, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrNoData, symbol, lastErr)
	}
	return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
}

// FetchUniverse fetches closes for every symbol, skipping symbols no provider
// can serve. It fails only when nothing at all was fetched.
func (m *Manager) FetchUniverse(ctx context.Context, symbols []string, period string) (map[string][]float64, error) {
	prices := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		closes, err := m.FetchDailyCloses(ctx, symbol, period)
		if err != nil {
			m.log.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol, no data")
			continue
		}
		prices[symbol] = closes
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: none of %d symbols could be fetched", ErrNoData, len(symbols))
	}

	m.log.Info().
		Int("requested", len(symbols)).
		Int("fetched", len(prices)).
		Msg("Fetched market data")
	return prices, nil
}
