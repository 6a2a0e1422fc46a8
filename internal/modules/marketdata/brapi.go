package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const brapiQuoteURL = "https://brapi.dev/api/quote/"

// BrapiProvider fetches daily closes from the free BRAPI service.
// BRAPI covers B3 listings and is preferred for Brazilian tickers.
type BrapiProvider struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewBrapiProvider creates a BRAPI provider.
func NewBrapiProvider() *BrapiProvider {
	return &BrapiProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Name identifies the provider.
func (p *BrapiProvider) Name() string { return "brapi" }

// Priority orders the provider among its peers.
func (p *BrapiProvider) Priority() int { return 90 }

type brapiResponse struct {
	Results []struct {
		HistoricalDataPrice []struct {
			Date  int64   `json:"date"`
			Close float64 `json:"close"`
		} `json:"historicalDataPrice"`
	} `json:"results"`
}

// FetchDailyCloses fetches daily close prices for one symbol.
// BRAPI uses bare tickers, so any .SA suffix is stripped.
func (p *BrapiProvider) FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ticker := strings.TrimSuffix(symbol, ".SA")

	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", "1d")
	q.Set("fundamental", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, brapiQuoteURL+url.PathEscape(ticker)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brapi returned status %d for %s", resp.StatusCode, ticker)
	}

	var data brapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode brapi response: %w", err)
	}
	if len(data.Results) == 0 || len(data.Results[0].HistoricalDataPrice) == 0 {
		return nil, fmt.Errorf("brapi returned no history for %s", ticker)
	}

	history := data.Results[0].HistoricalDataPrice
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})

	closes := make([]float64, 0, len(history))
	for _, h := range history {
		if h.Close > 0 {
			closes = append(closes, h.Close)
		}
	}
	return closes, nil
}
