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

// Equity dispatches scheduled_window opportunities as a notional market
// order through the broker.
type Equity struct {
	broker   ports.Broker
	store    ports.Storage
	notional float64
}

// NewEquity creates the equity dispatcher. notional is the capital allocated
// to the window strategy.
func NewEquity(broker ports.Broker, store ports.Storage, notional float64) *Equity {
	return &Equity{broker: broker, store: store, notional: notional}
}

// Notional implements Dispatcher.
func (e *Equity) Notional() float64 { return e.notional }

// Execute implements ports.Executor. A failed order submission is recorded
// on the trade row; the opportunity stays un-stamped and there is no retry
// of this instance.
func (e *Equity) Execute(ctx context.Context, opp domain.Opportunity) (string, error) {
	symbol := opp.PayloadString("symbol")
	if symbol == "" {
		return "", fmt.Errorf("executor.Equity: opportunity %s has no symbol", opp.Kind)
	}

	power, err := e.broker.BuyingPower(ctx)
	if err != nil {
		return "", fmt.Errorf("executor.Equity: buying power: %w", err)
	}
	if power < e.notional {
		return "", fmt.Errorf("executor.Equity: insufficient buying power $%.2f for $%.2f", power, e.notional)
	}

	trade := domain.Trade{
		ID:        uuid.New().String(),
		Strategy:  domain.KindScheduledWindow,
		Symbol:    symbol,
		Side:      "buy",
		ValueUSD:  e.notional,
		Status:    domain.TradeStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateTrade(ctx, trade); err != nil {
		return "", fmt.Errorf("executor.Equity: create trade: %w", err)
	}

	orderID, err := e.broker.BuyNotional(ctx, symbol, e.notional)
	if err != nil {
		trade.Status = domain.TradeStatusFailed
		trade.Error = err.Error()
		if uerr := e.store.UpdateTrade(ctx, trade); uerr != nil {
			slog.Warn("executor: failed to record trade error", "trade_id", trade.ID, "err", uerr)
		}
		return "", fmt.Errorf("executor.Equity: buy %s: %w", symbol, err)
	}

	now := time.Now().UTC()
	trade.Status = domain.TradeStatusExecuted
	trade.OrderRef = orderID
	trade.ExecutedAt = &now
	if err := e.store.UpdateTrade(ctx, trade); err != nil {
		slog.Warn("executor: failed to record execution", "trade_id", trade.ID, "err", err)
	}

	slog.Info("executor: equity order placed",
		"trade_id", trade.ID, "symbol", symbol, "order_id", orderID)
	return trade.ID, nil
}
