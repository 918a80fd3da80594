package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLatestPairs(t *testing.T) {
	createdAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/base", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pairs": [
			{"chainId": "base",
			 "baseToken": {"address": "0xpair1", "symbol": "TOK"},
			 "pairCreatedAt": ` + unixMilli(createdAt) + `,
			 "liquidity": {"usd": 15000},
			 "volume": {"h24": 8000},
			 "priceChange": {"h24": -42.5}},
			{"chainId": "base",
			 "baseToken": {"address": "0xpair2", "symbol": "NEW"},
			 "pairCreatedAt": 0,
			 "liquidity": {"usd": 100},
			 "volume": {"h24": 50},
			 "priceChange": {"h24": 1.0}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "base")
	pairs, err := c.FetchLatestPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	p := pairs[0]
	assert.Equal(t, "0xpair1", p.Address)
	assert.Equal(t, "TOK", p.Symbol)
	assert.Equal(t, "base", p.Chain)
	assert.True(t, p.CreatedAt.Equal(createdAt))
	assert.InDelta(t, 15000.0, p.LiquidityUSD, 0.001)
	assert.InDelta(t, 8000.0, p.Volume24h, 0.001)
	assert.InDelta(t, -42.5, p.PriceChange24h, 0.001)

	// pairCreatedAt 0 se traduce a timestamp cero, no a 1970.
	assert.True(t, pairs[1].CreatedAt.IsZero())
}

func TestFetchLatestPairsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "base")
	_, err := c.FetchLatestPairs(context.Background())
	assert.Error(t, err)
}

func unixMilli(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
