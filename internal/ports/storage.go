package ports

import (
	"context"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Storage persiste oportunidades y trades, y expone el agregado diario de P&L.
type Storage interface {
	// SaveOpportunity persiste una oportunidad (append-only) y devuelve su id.
	SaveOpportunity(ctx context.Context, opp domain.Opportunity) (int64, error)

	// MarkExecuted estampa executed=true y el trade de referencia sobre una
	// oportunidad ya persistida. Se llama exactamente una vez por oportunidad.
	MarkExecuted(ctx context.Context, oppID int64, tradeID string) error

	// CreateTrade inserta un trade nuevo (normalmente en estado pending).
	CreateTrade(ctx context.Context, trade domain.Trade) error

	// UpdateTrade actualiza status, order ref, error y executed_at de un trade.
	UpdateTrade(ctx context.Context, trade domain.Trade) error

	// GetDailyPnL devuelve el P&L realizado de hoy (UTC) agrupado por
	// estrategia, contando solo trades ejecutados. El risk manager trata
	// esta lectura como autoritativa.
	GetDailyPnL(ctx context.Context) ([]domain.DailyPnL, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
