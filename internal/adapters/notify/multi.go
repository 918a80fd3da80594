package notify

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/tradebot/internal/ports"
)

// Multi reparte cada alerta a varios notifiers. Un canal que falla se
// loguea y no bloquea a los demás — las alertas son best-effort siempre.
type Multi struct {
	notifiers []ports.Notifier
}

// NewMulti crea un fanout sobre los notifiers dados.
func NewMulti(notifiers ...ports.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify implementa ports.Notifier.
func (m *Multi) Notify(ctx context.Context, text string) error {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, text); err != nil {
			slog.Warn("notify: channel failed", "err", err)
		}
	}
	return nil
}
