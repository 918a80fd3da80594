package domain

import "time"

// MarketSnapshot es la vista read-only de un mercado de predicción en un
// instante: el identificador y el vector ordenado de precios por outcome.
type MarketSnapshot struct {
	ID            string
	Question      string
	OutcomePrices []float64 // probabilidades implícitas, una por outcome
	EndDate       time.Time // zero si el mercado no publica fecha de resolución
}

// PriceSum devuelve la suma de todos los outcome prices.
// En un mercado bien arbitrado debería estar cerca de 1.0.
func (m MarketSnapshot) PriceSum() float64 {
	var sum float64
	for _, p := range m.OutcomePrices {
		sum += p
	}
	return sum
}

// MaxPrice devuelve el precio máximo entre los outcomes, o 0 si no hay.
func (m MarketSnapshot) MaxPrice() float64 {
	var max float64
	for _, p := range m.OutcomePrices {
		if p > max {
			max = p
		}
	}
	return max
}

// PairSnapshot es la vista read-only de un trading pair en un DEX.
type PairSnapshot struct {
	Address        string // dirección del base token, identidad del pair
	Symbol         string
	Chain          string
	CreatedAt      time.Time
	LiquidityUSD   float64
	Volume24h      float64
	PriceChange24h float64 // porcentaje, puede ser negativo
}

// Age devuelve la antigüedad del pair respecto a now.
func (p PairSnapshot) Age(now time.Time) time.Duration {
	if p.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(p.CreatedAt)
}

// Quote es una cotización puntual de un símbolo de referencia.
type Quote struct {
	Symbol    string
	Price     float64
	ChangePct float64
}
