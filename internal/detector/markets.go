package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/ports"
)

const (
	// fetchLimit markets are requested per cycle; analyzeLimit of them are
	// actually evaluated. The tail is mostly dead markets anyway.
	fetchLimit   = 100
	analyzeLimit = 50

	moveThreshold     = 0.05 // outcome delta that counts as movement
	moveHighThreshold = 0.10 // above this the movement is high confidence

	sumLowBound     = 0.95 // outcome prices summing outside [low, high] is a mispricing
	sumHighBound    = 1.05
	mispriceHighDev = 0.05 // deviation above this is high confidence

	resolutionHorizon  = 24 * time.Hour
	resolutionMinPrice = 0.70
	resolutionMaxPrice = 0.95
)

// MarketsDetector watches prediction markets and emits price_movement,
// mispricing and resolution_window opportunities. It keeps the previous
// outcome price vector per market to compute deltas between consecutive
// cycles; a market's first sighting only stores memory.
type MarketsDetector struct {
	markets ports.MarketProvider
	prev    map[string][]float64 // market id → outcome prices del ciclo anterior
	now     func() time.Time
}

// NewMarketsDetector creates the detector. memory may be nil for a fresh
// start, or pre-seeded with previous price vectors (tests, warm restarts).
func NewMarketsDetector(markets ports.MarketProvider, memory map[string][]float64) *MarketsDetector {
	if memory == nil {
		memory = make(map[string][]float64)
	}
	return &MarketsDetector{
		markets: markets,
		prev:    memory,
		now:     time.Now,
	}
}

// Name implements Detector.
func (d *MarketsDetector) Name() string { return "markets" }

// Detect fetches market snapshots and evaluates the three rules per market.
// One bad market never aborts the rest of the scan.
func (d *MarketsDetector) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	markets, err := d.markets.FetchMarkets(ctx, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("detector.Markets: fetch markets: %w", err)
	}

	if len(markets) > analyzeLimit {
		markets = markets[:analyzeLimit]
	}

	var opps []domain.Opportunity
	for _, m := range markets {
		if m.ID == "" || len(m.OutcomePrices) == 0 {
			slog.Debug("markets: skipping snapshot without id or prices", "id", m.ID)
			continue
		}
		opps = append(opps, d.analyze(m)...)
	}
	return opps, nil
}

// analyze runs movement, mispricing and resolution-window rules on one market
// and unconditionally overwrites the stored memory with the current snapshot,
// so the next cycle compares against this one, not the first sighting.
func (d *MarketsDetector) analyze(m domain.MarketSnapshot) []domain.Opportunity {
	now := d.now()
	var opps []domain.Opportunity

	// Rule A: movement vs the previous cycle. No memory yet → store only.
	if prev, ok := d.prev[m.ID]; ok {
		n := len(m.OutcomePrices)
		if len(prev) < n {
			n = len(prev)
		}
		for i := 0; i < n; i++ {
			delta := math.Abs(m.OutcomePrices[i] - prev[i])
			if delta <= moveThreshold {
				continue
			}
			conf := domain.ConfidenceMedium
			if delta > moveHighThreshold {
				conf = domain.ConfidenceHigh
			}
			opps = append(opps, domain.Opportunity{
				Kind:         domain.KindPriceMovement,
				DetectedAt:   now,
				Description:  fmt.Sprintf("Price movement: %s", m.Question),
				ExpectedEdge: delta * 100,
				Confidence:   conf,
				ActionHint: fmt.Sprintf("Outcome %d: %.1f%% → %.1f%%",
					i, prev[i]*100, m.OutcomePrices[i]*100),
				Payload: map[string]any{
					"market_id":    m.ID,
					"outcome":      i,
					"price_change": delta,
					"question":     m.Question,
				},
			})
		}
	}
	d.prev[m.ID] = m.OutcomePrices

	// Rule B: outcome prices should sum to ~1.0.
	sum := m.PriceSum()
	if sum < sumLowBound || sum > sumHighBound {
		dev := math.Abs(1 - sum)
		conf := domain.ConfidenceLow
		if dev > mispriceHighDev {
			conf = domain.ConfidenceHigh
		}
		opps = append(opps, domain.Opportunity{
			Kind:         domain.KindMispricing,
			DetectedAt:   now,
			Description:  fmt.Sprintf("Mispricing: %s", m.Question),
			ExpectedEdge: dev * 100,
			Confidence:   conf,
			ActionHint:   fmt.Sprintf("Price sum: %.3f (expected: 1.0)", sum),
			Payload: map[string]any{
				"market_id": m.ID,
				"price_sum": sum,
				"question":  m.Question,
			},
		})
	}

	// Rule C: market resolves soon with a likely-but-not-settled favorite.
	if !m.EndDate.IsZero() {
		untilEnd := m.EndDate.Sub(now)
		maxPrice := m.MaxPrice()
		if untilEnd > 0 && untilEnd < resolutionHorizon &&
			maxPrice > resolutionMinPrice && maxPrice < resolutionMaxPrice {
			opps = append(opps, domain.Opportunity{
				Kind:         domain.KindResolutionWindow,
				DetectedAt:   now,
				Description:  fmt.Sprintf("Resolving soon: %s", m.Question),
				ExpectedEdge: (1 - maxPrice) * 100,
				Confidence:   domain.ConfidenceMedium,
				ActionHint: fmt.Sprintf("Resolves in %.1fh, favorite at %.0f%%",
					untilEnd.Hours(), maxPrice*100),
				Payload: map[string]any{
					"market_id":    m.ID,
					"max_price":    maxPrice,
					"hours_to_end": untilEnd.Hours(),
					"question":     m.Question,
				},
			})
		}
	}

	return opps
}
