// Package dexscreener implements PairProvider against the public
// Dexscreener API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

const (
	defaultBase = "https://api.dexscreener.com"

	// Dexscreener documents 300 req/min on the pairs endpoints.
	requestsPerSec = 3
)

// Client fetches recent trading pairs for one chain.
type Client struct {
	http    *http.Client
	base    string
	chain   string
	limiter *rate.Limiter
}

// NewClient creates a Client for the given chain (e.g. "base").
func NewClient(base, chain string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		chain:   chain,
		limiter: rate.NewLimiter(requestsPerSec, 2),
	}
}

type pairsResponse struct {
	Pairs []struct {
		ChainID   string `json:"chainId"`
		BaseToken struct {
			Address string `json:"address"`
			Symbol  string `json:"symbol"`
		} `json:"baseToken"`
		PairCreatedAt int64 `json:"pairCreatedAt"` // ms epoch
		Liquidity     struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		Volume struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
		PriceChange struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
	} `json:"pairs"`
}

// FetchLatestPairs implements ports.PairProvider.
func (c *Client) FetchLatestPairs(ctx context.Context) ([]domain.PairSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("dexscreener.FetchLatestPairs: rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.base, c.chain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dexscreener.FetchLatestPairs: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener.FetchLatestPairs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener.FetchLatestPairs: status %d", resp.StatusCode)
	}

	var raw pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dexscreener.FetchLatestPairs: decode: %w", err)
	}

	pairs := make([]domain.PairSnapshot, 0, len(raw.Pairs))
	for _, p := range raw.Pairs {
		snap := domain.PairSnapshot{
			Address:        p.BaseToken.Address,
			Symbol:         p.BaseToken.Symbol,
			Chain:          p.ChainID,
			LiquidityUSD:   p.Liquidity.USD,
			Volume24h:      p.Volume.H24,
			PriceChange24h: p.PriceChange.H24,
		}
		if p.PairCreatedAt > 0 {
			snap.CreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
		}
		pairs = append(pairs, snap)
	}
	return pairs, nil
}
