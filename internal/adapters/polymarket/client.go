// Package polymarket implementa MarketProvider y MarketVenue contra las
// APIs públicas de Polymarket (Gamma para mercados, data API para balances).
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultDataBase  = "https://data-api.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	dataRatePerSec  = 10

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Polymarket con rate limiting y retries.
type Client struct {
	http         *http.Client
	gammaBase    string
	dataBase     string
	wallet       string // dirección para consultas de balance; vacío = sin venue
	gammaLimiter *rate.Limiter
	dataLimiter  *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Si gammaBase o dataBase están vacíos, usa los URLs de producción.
func NewClient(gammaBase, dataBase, wallet string) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	if dataBase == "" {
		dataBase = defaultDataBase
	}
	return &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		gammaBase:    gammaBase,
		dataBase:     dataBase,
		wallet:       wallet,
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
		dataLimiter:  rate.NewLimiter(dataRatePerSec, 5),
	}
}

// gammaMarket es la respuesta cruda de Gamma. outcomePrices llega como un
// string con un JSON array dentro ("[\"0.42\", \"0.58\"]").
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	OutcomePrices string `json:"outcomePrices"`
	EndDate       string `json:"endDate"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
}

// FetchMarkets implementa ports.MarketProvider: devuelve hasta limit
// mercados activos con sus outcome prices actuales.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	url := fmt.Sprintf("%s/markets?active=true&closed=false&limit=%d&order=volume24hr&ascending=false",
		c.gammaBase, limit)

	var raw []gammaMarket
	if err := c.get(ctx, c.gammaLimiter, url, &raw); err != nil {
		return nil, fmt.Errorf("polymarket.FetchMarkets: %w", err)
	}

	snapshots := make([]domain.MarketSnapshot, 0, len(raw))
	for _, gm := range raw {
		if gm.ConditionID == "" || gm.Closed {
			continue
		}
		prices, err := parseOutcomePrices(gm.OutcomePrices)
		if err != nil {
			slog.Debug("polymarket: skipping market with bad prices",
				"condition_id", gm.ConditionID, "err", err)
			continue
		}
		snap := domain.MarketSnapshot{
			ID:            gm.ConditionID,
			Question:      gm.Question,
			OutcomePrices: prices,
		}
		if gm.EndDate != "" {
			if end, err := time.Parse(time.RFC3339, gm.EndDate); err == nil {
				snap.EndDate = end
			}
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// HasBalance implementa ports.MarketVenue consultando el valor de la wallet
// en el data API.
func (c *Client) HasBalance(ctx context.Context, amountUSD float64) (bool, error) {
	if c.wallet == "" {
		return false, fmt.Errorf("polymarket.HasBalance: no wallet configured")
	}

	url := fmt.Sprintf("%s/value?user=%s", c.dataBase, c.wallet)
	var resp []struct {
		User  string  `json:"user"`
		Value float64 `json:"value"`
	}
	if err := c.get(ctx, c.dataLimiter, url, &resp); err != nil {
		return false, fmt.Errorf("polymarket.HasBalance: %w", err)
	}
	if len(resp) == 0 {
		return false, nil
	}
	return resp[0].Value >= amountUSD, nil
}

// parseOutcomePrices decodifica el string-array de Gamma a []float64.
func parseOutcomePrices(raw string) ([]float64, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty outcomePrices")
	}
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		return nil, fmt.Errorf("decode outcomePrices %q: %w", raw, err)
	}
	prices := make([]float64, len(strs))
	for i, s := range strs {
		if _, err := fmt.Sscanf(s, "%f", &prices[i]); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", s, err)
		}
	}
	return prices, nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial, respetando 429 y 5xx.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("polymarket: rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
