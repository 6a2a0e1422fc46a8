package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const alphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider fetches daily closes from Alpha Vantage.
// Requires a free API key; without one the provider reports failure so the
// manager falls through to the next source. The free tier is heavily rate
// limited, hence the conservative limiter.
type AlphaVantageProvider struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAlphaVantageProvider creates an Alpha Vantage provider.
func NewAlphaVantageProvider(apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(15*time.Second), 1),
	}
}

// Name identifies the provider.
func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

// Priority orders the provider among its peers.
func (p *AlphaVantageProvider) Priority() int { return 70 }

type alphaVantageResponse struct {
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	Note       string                       `json:"Note"`
}

// FetchDailyCloses fetches daily close prices for one symbol.
// The period parameter is ignored; Alpha Vantage returns its full history.
func (p *AlphaVantageProvider) FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("alpha vantage requires an API key")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Brazilian tickers use the .SAO suffix on Alpha Vantage
	ticker := strings.Replace(symbol, ".SA", ".SAO", 1)

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", ticker)
	q.Set("outputsize", "full")
	q.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, alphaVantageURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d for %s", resp.StatusCode, ticker)
	}

	var data alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode alpha vantage response: %w", err)
	}
	if len(data.TimeSeries) == 0 {
		if data.Note != "" {
			return nil, fmt.Errorf("alpha vantage: %s", data.Note)
		}
		return nil, fmt.Errorf("alpha vantage returned no data for %s", ticker)
	}

	dates := make([]string, 0, len(data.TimeSeries))
	for date := range data.TimeSeries {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	closes := make([]float64, 0, len(dates))
	for _, date := range dates {
		raw, ok := data.TimeSeries[date]["4. close"]
		if !ok {
			continue
		}
		c, err := strconv.ParseFloat(raw, 64)
		if err == nil && c > 0 {
			closes = append(closes, c)
		}
	}
	return closes, nil
}
