package ports

import (
	"context"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Executor convierte una oportunidad autorizada en una única acción externa
// (orden, swap, compra) y registra el resultado en el record store.
type Executor interface {
	// Execute despacha la oportunidad y devuelve el id del trade creado.
	// Un error deja la oportunidad sin estampar como ejecutada; no hay retry
	// de la misma instancia.
	Execute(ctx context.Context, opp domain.Opportunity) (tradeID string, err error)
}
