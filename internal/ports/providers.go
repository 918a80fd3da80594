package ports

import (
	"context"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// MarketProvider obtiene snapshots de mercados de predicción.
type MarketProvider interface {
	// FetchMarkets devuelve hasta limit mercados activos con sus
	// outcome prices actuales. Sin side effects.
	FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)
}

// PairProvider obtiene los trading pairs recientes de un DEX.
type PairProvider interface {
	// FetchLatestPairs devuelve los pairs más recientes de la chain configurada.
	FetchLatestPairs(ctx context.Context) ([]domain.PairSnapshot, error)
}

// QuoteProvider obtiene una cotización puntual de un símbolo.
type QuoteProvider interface {
	// FetchQuote devuelve el último precio del símbolo dado.
	FetchQuote(ctx context.Context, symbol string) (domain.Quote, error)
}
