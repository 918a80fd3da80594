package detector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/ports"
)

const (
	pairScanLimit = 20

	maxPairAge      = 24 * time.Hour
	minLiquidityUSD = 1_000
	minVolume24hUSD = 5_000
	// Above this liquidity a fresh listing is less likely to be a rug.
	mediumLiquidityUSD = 10_000
)

// ListingsDetector watches for fresh DEX trading pairs. Each pair address is
// reported at most once per process lifetime: the seen set only grows, and a
// pair is marked seen the moment it is emitted, regardless of whether the
// opportunity is ever executed.
type ListingsDetector struct {
	pairs ports.PairProvider
	seen  map[string]struct{}
	now   func() time.Time
}

// NewListingsDetector creates the detector. seen may be nil for a fresh
// start, or pre-seeded with already-reported pair addresses.
func NewListingsDetector(pairs ports.PairProvider, seen map[string]struct{}) *ListingsDetector {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	return &ListingsDetector{
		pairs: pairs,
		seen:  seen,
		now:   time.Now,
	}
}

// Name implements Detector.
func (d *ListingsDetector) Name() string { return "listings" }

// Detect fetches the latest pairs and emits one opportunity per qualifying
// never-seen listing.
func (d *ListingsDetector) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	pairs, err := d.pairs.FetchLatestPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("detector.Listings: fetch pairs: %w", err)
	}

	if len(pairs) > pairScanLimit {
		pairs = pairs[:pairScanLimit]
	}

	now := d.now()
	var opps []domain.Opportunity
	for _, p := range pairs {
		if p.Address == "" {
			continue
		}
		if _, ok := d.seen[p.Address]; ok {
			continue
		}
		if p.CreatedAt.IsZero() || p.Age(now) >= maxPairAge {
			continue
		}
		if p.LiquidityUSD <= minLiquidityUSD || p.Volume24h <= minVolume24hUSD {
			continue
		}

		conf := domain.ConfidenceLow
		if p.LiquidityUSD > mediumLiquidityUSD {
			conf = domain.ConfidenceMedium
		}
		opps = append(opps, domain.Opportunity{
			Kind:         domain.KindNewListing,
			DetectedAt:   now,
			Description:  fmt.Sprintf("New %s token: %s", p.Chain, p.Symbol),
			ExpectedEdge: math.Abs(p.PriceChange24h),
			Confidence:   conf,
			ActionHint:   fmt.Sprintf("%s — Liq: $%.0f, Vol24h: $%.0f", p.Symbol, p.LiquidityUSD, p.Volume24h),
			Payload: map[string]any{
				"chain":        p.Chain,
				"symbol":       p.Symbol,
				"address":      p.Address,
				"liquidity":    p.LiquidityUSD,
				"volume":       p.Volume24h,
				"price_change": p.PriceChange24h,
			},
		})
		d.seen[p.Address] = struct{}{}
	}
	return opps, nil
}
