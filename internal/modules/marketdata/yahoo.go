package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooProvider fetches daily closes from the free Yahoo Finance chart API.
type YahooProvider struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewYahooProvider creates a Yahoo Finance provider.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Name identifies the provider.
func (p *YahooProvider) Name() string { return "yahoo" }

// Priority orders the provider among its peers.
func (p *YahooProvider) Priority() int { return 80 }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyCloses fetches daily close prices for one symbol.
// B3 tickers without an exchange suffix get the .SA suffix appended.
func (p *YahooProvider) FetchDailyCloses(ctx context.Context, symbol, period string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ticker := symbol
	if !strings.Contains(ticker, ".") && !strings.HasPrefix(ticker, "^") {
		ticker += ".SA"
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", period)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yahooChartURL+url.PathEscape(ticker)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "quantfolio/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, ticker)
	}

	var data yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error for %s: %s", ticker, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo returned no data for %s", ticker)
	}

	raw := data.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, c := range raw {
		if c != nil && *c > 0 {
			closes = append(closes, *c)
		}
	}
	return closes, nil
}
