// Package detector contains the per-source signal detectors. Each detector
// turns a snapshot of external state into zero or more candidate
// opportunities. Detectors own their memory (last-seen prices, seen sets,
// last-alert dates); nothing is shared across detectors.
package detector

import (
	"context"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Detector is the single contract shared by all signal detectors.
type Detector interface {
	// Name identifies the detector in logs and cycle summaries.
	Name() string

	// Detect evaluates the current external state and returns the
	// opportunities found, in emission order. A returned error means the
	// whole source failed this cycle; the caller degrades it to zero
	// opportunities and keeps the cycle alive.
	Detect(ctx context.Context) ([]domain.Opportunity, error)
}
