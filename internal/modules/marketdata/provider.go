// Package marketdata fetches historical close prices from public providers.
//
// Providers are tried in priority order until one returns usable data, so a
// single flaky API never blocks an optimization run. The core engine only
// sees the resulting symbol -> closes mapping.
package marketdata

import (
	"context"
	"errors"
)

// ErrNoData is returned when no provider could supply prices for a symbol.
var ErrNoData = errors.New("no market data available")

// Provider supplies daily close prices for one symbol.
type Provider interface {
	Name() string
	// Priority orders providers; higher is tried first.
	Priority() int
	// FetchDailyCloses returns daily closes in chronological order for the
	// given history range (e.g. "1y", "6mo").
	FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error)
}
