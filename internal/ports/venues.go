package ports

import "context"

// MarketVenue es la frontera con el venue de mercados de predicción.
// Solo lo que los executors necesitan: verificación de fondos.
type MarketVenue interface {
	// HasBalance devuelve true si hay al menos amountUSD disponibles.
	HasBalance(ctx context.Context, amountUSD float64) (bool, error)
}

// Broker es la frontera con el broker de equities.
type Broker interface {
	// BuyingPower devuelve el poder de compra disponible en USD.
	BuyingPower(ctx context.Context) (float64, error)

	// BuyNotional coloca una orden de mercado por un monto notional en USD
	// y devuelve el id de orden del broker.
	BuyNotional(ctx context.Context, symbol string, notionalUSD float64) (string, error)
}

// TokenVenue es la frontera con el DEX para compras de tokens.
type TokenVenue interface {
	// NativeBalance devuelve el balance del native token (gas) de la wallet.
	NativeBalance(ctx context.Context) (float64, error)
}
