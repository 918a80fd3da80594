package domain

import "time"

// TradeStatus es el estado de un trade en el record store.
type TradeStatus string

const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusExecuted TradeStatus = "executed"
	TradeStatusFailed   TradeStatus = "failed"
)

// Trade es el registro de un intento de ejecución contra un venue.
// Lo crea el executor como pending y lo actualiza con el resultado.
type Trade struct {
	ID           string // uuid local, generado al crear
	Strategy     Kind   // familia del detector que originó el trade
	MarketID     string // mercados de predicción
	Symbol       string // equities / tokens
	TokenAddress string // token launches
	Side         string // "buy" | "sell"
	Amount       float64
	ValueUSD     float64
	Status       TradeStatus
	OrderRef     string // id de orden del venue, si llegó a colocarse
	PnL          float64
	Error        string
	CreatedAt    time.Time
	ExecutedAt   *time.Time
}

// DailyPnL es una fila del agregado diario por estrategia.
type DailyPnL struct {
	Strategy   Kind
	TotalPnL   float64
	TradeCount int
	Volume     float64
}
