package ports

import (
	"context"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Notifier entrega alertas al operador. Best-effort: los errores se loguean
// en el caller y nunca se propagan al ciclo de escaneo.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Reporter presenta las oportunidades de un ciclo al operador.
// En la implementación de consola, imprime una tabla formateada.
type Reporter interface {
	Report(ctx context.Context, opportunities []domain.Opportunity) error
}
