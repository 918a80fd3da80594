// Package alpaca implements the Broker port against the Alpaca trading API.
// Defaults to the paper endpoint; the live endpoint is opt-in via config.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBase = "https://paper-api.alpaca.markets"

// Client talks to the Alpaca REST API with key/secret header auth.
type Client struct {
	http    *http.Client
	base    string
	key     string
	secret  string
	limiter *rate.Limiter
}

// NewClient creates a broker client. key and secret come from the
// environment, never from the YAML config.
func NewClient(base, key, secret string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		key:     key,
		secret:  secret,
		limiter: rate.NewLimiter(3, 2),
	}
}

// BuyingPower implements ports.Broker.
func (c *Client) BuyingPower(ctx context.Context) (float64, error) {
	var account struct {
		BuyingPower string `json:"buying_power"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/account", nil, &account); err != nil {
		return 0, fmt.Errorf("alpaca.BuyingPower: %w", err)
	}
	power, err := strconv.ParseFloat(account.BuyingPower, 64)
	if err != nil {
		return 0, fmt.Errorf("alpaca.BuyingPower: parse %q: %w", account.BuyingPower, err)
	}
	return power, nil
}

// BuyNotional implements ports.Broker: a notional market order, day TIF.
func (c *Client) BuyNotional(ctx context.Context, symbol string, notionalUSD float64) (string, error) {
	order := map[string]string{
		"symbol":        symbol,
		"notional":      fmt.Sprintf("%.2f", notionalUSD),
		"side":          "buy",
		"type":          "market",
		"time_in_force": "day",
	}
	var placed struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/orders", order, &placed); err != nil {
		return "", fmt.Errorf("alpaca.BuyNotional: %s: %w", symbol, err)
	}
	return placed.ID, nil
}

// do runs one authenticated request against the API.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
