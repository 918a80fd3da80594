package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/ports"
)

// Markets dispatches prediction-market opportunities (price_movement,
// mispricing, resolution_window). Order signing and submission belong to the
// venue client; this layer only verifies funds and records the trade.
type Markets struct {
	venue    ports.MarketVenue
	store    ports.Storage
	notional float64
}

// NewMarkets creates the prediction-markets dispatcher. notional is the USD
// amount committed per trade.
func NewMarkets(venue ports.MarketVenue, store ports.Storage, notional float64) *Markets {
	return &Markets{venue: venue, store: store, notional: notional}
}

// Notional implements Dispatcher.
func (e *Markets) Notional() float64 { return e.notional }

// Execute implements ports.Executor.
func (e *Markets) Execute(ctx context.Context, opp domain.Opportunity) (string, error) {
	marketID := opp.PayloadString("market_id")
	if marketID == "" {
		return "", fmt.Errorf("executor.Markets: opportunity %s has no market_id", opp.Kind)
	}

	ok, err := e.venue.HasBalance(ctx, e.notional)
	if err != nil {
		return "", fmt.Errorf("executor.Markets: balance check: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("executor.Markets: insufficient venue balance for $%.2f", e.notional)
	}

	trade := domain.Trade{
		ID:        uuid.New().String(),
		Strategy:  opp.Kind.Family(),
		MarketID:  marketID,
		Side:      "buy",
		Amount:    1,
		ValueUSD:  e.notional,
		Status:    domain.TradeStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateTrade(ctx, trade); err != nil {
		return "", fmt.Errorf("executor.Markets: create trade: %w", err)
	}

	slog.Info("executor: market trade recorded",
		"trade_id", trade.ID, "market_id", marketID, "kind", opp.Kind)
	return trade.ID, nil
}
