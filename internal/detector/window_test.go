package detector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

type fakeQuotes struct {
	quote domain.Quote
	err   error
}

func (f *fakeQuotes) FetchQuote(_ context.Context, _ string) (domain.Quote, error) {
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return f.quote, nil
}

func newTestWindow(t *testing.T, quotes *fakeQuotes, at time.Time) *WindowDetector {
	t.Helper()
	d, err := NewWindowDetector(quotes, WindowParams{
		Symbol:       "SPY",
		Timezone:     "America/New_York",
		Start:        "15:45",
		End:          "15:55",
		ExpectedEdge: 0.3,
	})
	require.NoError(t, err)
	d.now = func() time.Time { return at }
	return d
}

func nyTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 2026-08-26 es miércoles
	return time.Date(2026, 8, 26, hour, minute, 0, 0, loc)
}

func TestWindowDetector_FiresInsideWindow(t *testing.T) {
	quotes := &fakeQuotes{quote: domain.Quote{Symbol: "SPY", Price: 642.10, ChangePct: -0.4}}
	d := newTestWindow(t, quotes, nyTime(t, 15, 50))

	opps, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, domain.KindScheduledWindow, opp.Kind)
	assert.Equal(t, domain.ConfidenceHigh, opp.Confidence)
	assert.InDelta(t, 0.3, opp.ExpectedEdge, 0.001)
	assert.Equal(t, "SPY", opp.PayloadString("symbol"))
	assert.InDelta(t, 642.10, opp.PayloadFloat("price"), 0.001)
}

func TestWindowDetector_BoundsAreInclusive(t *testing.T) {
	for _, minute := range []int{45, 55} {
		d := newTestWindow(t, &fakeQuotes{}, nyTime(t, 15, minute))
		opps, err := d.Detect(context.Background())
		require.NoError(t, err)
		assert.Len(t, opps, 1, "minuto %d está dentro de la ventana", minute)
	}
}

func TestWindowDetector_OutsideWindow(t *testing.T) {
	for _, tc := range []struct{ hour, minute int }{
		{15, 44},
		{15, 56},
		{9, 30},
	} {
		d := newTestWindow(t, &fakeQuotes{}, nyTime(t, tc.hour, tc.minute))
		opps, err := d.Detect(context.Background())
		require.NoError(t, err)
		assert.Empty(t, opps, "%02d:%02d está fuera de la ventana", tc.hour, tc.minute)
	}
}

func TestWindowDetector_SkipsWeekends(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-08-29 es sábado, 2026-08-30 domingo
	for day := 29; day <= 30; day++ {
		d := newTestWindow(t, &fakeQuotes{}, time.Date(2026, 8, day, 15, 50, 0, 0, loc))
		opps, err := d.Detect(context.Background())
		require.NoError(t, err)
		assert.Empty(t, opps)
	}
}

func TestWindowDetector_OncePerDay(t *testing.T) {
	d := newTestWindow(t, &fakeQuotes{}, nyTime(t, 15, 46))
	ctx := context.Background()

	opps, err := d.Detect(ctx)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	// Mismo día, todavía dentro de la ventana: no repite.
	d.now = func() time.Time { return nyTime(t, 15, 50) }
	opps, err = d.Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, opps)

	// Día siguiente (jueves): vuelve a disparar.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2026, 8, 27, 15, 50, 0, 0, loc) }
	opps, err = d.Detect(ctx)
	require.NoError(t, err)
	assert.Len(t, opps, 1)
}

func TestWindowDetector_QuoteFailureDegradesPayload(t *testing.T) {
	d := newTestWindow(t, &fakeQuotes{err: assert.AnError}, nyTime(t, 15, 50))

	opps, err := d.Detect(context.Background())
	require.NoError(t, err, "fallo del quote no aborta la oportunidad")
	require.Len(t, opps, 1)

	_, hasPrice := opps[0].Payload["price"]
	assert.False(t, hasPrice)
	assert.Equal(t, "SPY", opps[0].PayloadString("symbol"))
}

func TestWindowDetector_InvalidConfig(t *testing.T) {
	_, err := NewWindowDetector(&fakeQuotes{}, WindowParams{
		Symbol: "SPY", Timezone: "Mars/Olympus", Start: "15:45", End: "15:55",
	})
	assert.Error(t, err)

	_, err = NewWindowDetector(&fakeQuotes{}, WindowParams{
		Symbol: "SPY", Timezone: "America/New_York", Start: "25:00", End: "15:55",
	})
	assert.Error(t, err)

	_, err = NewWindowDetector(&fakeQuotes{}, WindowParams{
		Symbol: "SPY", Timezone: "America/New_York", Start: "15:55", End: "15:45",
	})
	assert.Error(t, err)
}
