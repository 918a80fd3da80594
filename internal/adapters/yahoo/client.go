// Package yahoo implements QuoteProvider against the Yahoo Finance chart
// API. It is only used for best-effort reference quotes, so the client is
// deliberately thin: one request, one timeout, no retries.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

const defaultBase = "https://query1.finance.yahoo.com"

// Client fetches last-price quotes.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a quote client for the given base URL.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(2, 1),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice         float64 `json:"regularMarketPrice"`
				RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchQuote implements ports.QuoteProvider.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", c.base, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: status %d", resp.StatusCode)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: decode: %w", err)
	}
	if len(raw.Chart.Result) == 0 {
		return domain.Quote{}, fmt.Errorf("yahoo.FetchQuote: empty result for %s", symbol)
	}

	meta := raw.Chart.Result[0].Meta
	return domain.Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		ChangePct: meta.RegularMarketChangePercent,
	}, nil
}
