package detector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/ports"
)

// WindowParams defines the fixed daily window the detector fires in.
type WindowParams struct {
	Symbol       string
	Timezone     string
	Start        string // HH:MM in Timezone
	End          string
	ExpectedEdge float64
}

// WindowDetector emits at most one scheduled_window opportunity per calendar
// day, when the local wall clock falls inside the configured window on a
// weekday. The reference quote is best-effort: a failed fetch degrades the
// payload, never the opportunity.
type WindowDetector struct {
	quotes           ports.QuoteProvider
	params           WindowParams
	loc              *time.Location
	startMin, endMin int // minutos desde medianoche

	lastAlertDate string // YYYY-MM-DD en el timezone de la ventana
	now           func() time.Time
}

// NewWindowDetector creates the detector. It fails fast on an invalid
// timezone or window bounds — that is a configuration error, not a
// per-cycle condition.
func NewWindowDetector(quotes ports.QuoteProvider, params WindowParams) (*WindowDetector, error) {
	loc, err := time.LoadLocation(params.Timezone)
	if err != nil {
		return nil, fmt.Errorf("detector.NewWindowDetector: timezone %q: %w", params.Timezone, err)
	}
	startMin, err := parseClock(params.Start)
	if err != nil {
		return nil, fmt.Errorf("detector.NewWindowDetector: start %q: %w", params.Start, err)
	}
	endMin, err := parseClock(params.End)
	if err != nil {
		return nil, fmt.Errorf("detector.NewWindowDetector: end %q: %w", params.End, err)
	}
	if endMin < startMin {
		return nil, fmt.Errorf("detector.NewWindowDetector: window end %q before start %q", params.End, params.Start)
	}
	return &WindowDetector{
		quotes:   quotes,
		params:   params,
		loc:      loc,
		startMin: startMin,
		endMin:   endMin,
		now:      time.Now,
	}, nil
}

// Name implements Detector.
func (d *WindowDetector) Name() string { return "window" }

// Detect checks the wall clock against the window and the one-per-day marker.
func (d *WindowDetector) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	local := d.now().In(d.loc)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil, nil
	}
	minuteOfDay := local.Hour()*60 + local.Minute()
	if minuteOfDay < d.startMin || minuteOfDay > d.endMin {
		return nil, nil
	}
	dateStr := local.Format("2006-01-02")
	if dateStr == d.lastAlertDate {
		return nil, nil
	}

	payload := map[string]any{
		"symbol": d.params.Symbol,
		"time":   local.Format("15:04"),
	}
	// Quote de referencia: si falla seguimos sin precio.
	if quote, err := d.quotes.FetchQuote(ctx, d.params.Symbol); err != nil {
		slog.Warn("window: reference quote unavailable", "symbol", d.params.Symbol, "err", err)
	} else {
		payload["price"] = quote.Price
		payload["change_pct"] = quote.ChangePct
	}

	d.lastAlertDate = dateStr

	return []domain.Opportunity{{
		Kind:         domain.KindScheduledWindow,
		DetectedAt:   d.now(),
		Description:  fmt.Sprintf("%s close-of-day window", d.params.Symbol),
		ExpectedEdge: d.params.ExpectedEdge,
		Confidence:   domain.ConfidenceHigh,
		ActionHint: fmt.Sprintf("%s–%s %s — expected move ~%.1f%%",
			d.params.Start, d.params.End, d.params.Timezone, d.params.ExpectedEdge),
		Payload: payload,
	}}, nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
