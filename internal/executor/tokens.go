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

// Gas plus a small buffer, in native token units.
const minNativeForSwap = 0.01

// Tokens dispatches new_listing opportunities. The swap itself goes through
// the DEX client; this layer verifies gas and records the trade.
type Tokens struct {
	venue    ports.TokenVenue
	store    ports.Storage
	notional float64
}

// NewTokens creates the token-launch dispatcher.
func NewTokens(venue ports.TokenVenue, store ports.Storage, notional float64) *Tokens {
	return &Tokens{venue: venue, store: store, notional: notional}
}

// Notional implements Dispatcher.
func (e *Tokens) Notional() float64 { return e.notional }

// Execute implements ports.Executor.
func (e *Tokens) Execute(ctx context.Context, opp domain.Opportunity) (string, error) {
	address := opp.PayloadString("address")
	symbol := opp.PayloadString("symbol")
	if address == "" {
		return "", fmt.Errorf("executor.Tokens: opportunity %s has no address", opp.Kind)
	}

	balance, err := e.venue.NativeBalance(ctx)
	if err != nil {
		return "", fmt.Errorf("executor.Tokens: native balance: %w", err)
	}
	if balance < minNativeForSwap {
		return "", fmt.Errorf("executor.Tokens: insufficient native balance %.4f for gas", balance)
	}

	trade := domain.Trade{
		ID:           uuid.New().String(),
		Strategy:     domain.KindNewListing,
		Symbol:       symbol,
		TokenAddress: address,
		Side:         "buy",
		ValueUSD:     e.notional,
		Status:       domain.TradeStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.CreateTrade(ctx, trade); err != nil {
		return "", fmt.Errorf("executor.Tokens: create trade: %w", err)
	}

	slog.Info("executor: token trade recorded",
		"trade_id", trade.ID, "symbol", symbol, "address", address)
	return trade.ID, nil
}
