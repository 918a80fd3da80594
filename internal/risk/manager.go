// Package risk implements the stateful gatekeeper that authorizes or denies
// each candidate execution against the configured daily limits.
package risk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/tradebot/internal/ports"
)

// Limits are the configured risk ceilings.
type Limits struct {
	MaxPositionSizeUSD float64
	MaxDailyLossUSD    float64
	MaxTradesPerDay    int
}

// Manager enforces daily loss and trade-count limits. It has two states:
// enabled (initial) and disabled (terminal for the run). A daily-loss breach
// disables trading permanently for the process — it never self-heals, even
// if P&L recovers later the same day. The trade-count cap is just a
// throttle: it denies without changing state and relaxes on the next
// calendar day.
type Manager struct {
	limits   Limits
	store    ports.Storage
	notifier ports.Notifier
	enabled  bool
}

// NewManager creates a Manager in the enabled state.
func NewManager(limits Limits, store ports.Storage, notifier ports.Notifier) *Manager {
	return &Manager{
		limits:   limits,
		store:    store,
		notifier: notifier,
		enabled:  true,
	}
}

// Enabled reports whether trading is still enabled for this run.
func (m *Manager) Enabled() bool { return m.enabled }

// CheckDailyLimits recomputes today's realized P&L and trade count from the
// record store and returns whether execution is authorized this cycle. The
// store read is authoritative; if it fails, nothing is authorized.
func (m *Manager) CheckDailyLimits(ctx context.Context) (bool, error) {
	stats, err := m.store.GetDailyPnL(ctx)
	if err != nil {
		return false, fmt.Errorf("risk.CheckDailyLimits: daily pnl: %w", err)
	}

	var totalPnL float64
	var totalTrades int
	for _, s := range stats {
		totalPnL += s.TotalPnL
		totalTrades += s.TradeCount
	}

	if totalPnL <= -m.limits.MaxDailyLossUSD {
		if m.enabled {
			m.enabled = false
			slog.Error("risk: daily loss limit reached, trading disabled",
				"pnl", fmt.Sprintf("%.2f", totalPnL),
				"limit", m.limits.MaxDailyLossUSD)
			m.alert(ctx, fmt.Sprintf(
				"DAILY LOSS LIMIT REACHED\n\nPnL: %.2f USD\n\nTrading disabled.", totalPnL))
		}
		return false, nil
	}

	if totalTrades >= m.limits.MaxTradesPerDay {
		slog.Warn("risk: daily trade limit reached", "trades", totalTrades,
			"limit", m.limits.MaxTradesPerDay)
		return false, nil
	}

	return m.enabled, nil
}

// CanExecute is the cheap per-candidate check: pure function of current
// state and the position-size ceiling, no store access.
func (m *Manager) CanExecute(amountUSD float64) bool {
	if !m.enabled {
		return false
	}
	if amountUSD > m.limits.MaxPositionSizeUSD {
		return false
	}
	return true
}

// alert pushes a risk notification, best-effort.
func (m *Manager) alert(ctx context.Context, text string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, text); err != nil {
		slog.Warn("risk: notifier error", "err", err)
	}
}
