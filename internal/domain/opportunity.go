package domain

import (
	"fmt"
	"time"
)

// Kind identifica qué detector produjo una oportunidad.
// El set es cerrado: cada Kind tiene exactamente un detector que lo emite
// y un executor que sabe despacharlo.
type Kind string

const (
	KindPriceMovement    Kind = "price_movement"
	KindMispricing       Kind = "mispricing"
	KindResolutionWindow Kind = "resolution_window"
	KindNewListing       Kind = "new_listing"
	KindScheduledWindow  Kind = "scheduled_window"
)

// Family agrupa kinds que comparten executor y límite de capital.
// Los tres kinds de mercados de predicción despachan por el mismo executor.
func (k Kind) Family() Kind {
	switch k {
	case KindMispricing, KindResolutionWindow:
		return KindPriceMovement
	}
	return k
}

// Confidence es el nivel cualitativo de una oportunidad, ordenado low < medium < high.
// No es una probabilidad calibrada — solo se usa para gating de ejecución.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String devuelve la representación para logs y persistencia.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParseConfidence convierte un string de config/DB a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch s {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return ConfidenceLow, fmt.Errorf("domain.ParseConfidence: unknown confidence %q", s)
}

// Opportunity es una señal candidata detectada en un ciclo de escaneo.
// La crea un detector y es inmutable salvo por el stamp Executed/TradeRef
// que pone el orquestador tras despachar una ejecución.
type Opportunity struct {
	ID           int64 // asignado por storage al persistir
	Kind         Kind
	DetectedAt   time.Time
	Description  string
	ExpectedEdge float64 // puntos porcentuales, escala propia de cada detector
	Confidence   Confidence
	ActionHint   string
	Payload      map[string]any // datos opacos para el executor del Kind; read-only

	// Executed se marca exactamente una vez cuando se despacha una ejecución
	// con éxito. Nunca se resetea. TradeRef apunta al trade creado.
	Executed bool
	TradeRef string
}

// PayloadString devuelve el valor string de una key del payload, o "" si falta.
func (o Opportunity) PayloadString(key string) string {
	if v, ok := o.Payload[key].(string); ok {
		return v
	}
	return ""
}

// PayloadFloat devuelve el valor float64 de una key del payload, o 0 si falta.
func (o Opportunity) PayloadFloat(key string) float64 {
	switch v := o.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
