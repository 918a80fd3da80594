package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradebot/internal/detector"
	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/executor"
	"github.com/alejandrodnm/tradebot/internal/ports"
	"github.com/alejandrodnm/tradebot/internal/risk"
)

// fakeDetector returns a scripted batch of opportunities, or fails.
type fakeDetector struct {
	name string
	opps []domain.Opportunity
	err  error
}

func (f *fakeDetector) Name() string { return f.name }

func (f *fakeDetector) Detect(_ context.Context) ([]domain.Opportunity, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Opportunity, len(f.opps))
	copy(out, f.opps)
	return out, nil
}

// memStore records everything the agent persists.
type memStore struct {
	nextID   int64
	saved    []domain.Opportunity
	stamped  map[int64]string // opp id → trade id
	pnl      []domain.DailyPnL
	saveErr  error
	pnlErr   error
}

func newMemStore() *memStore {
	return &memStore{stamped: make(map[int64]string)}
}

func (s *memStore) SaveOpportunity(_ context.Context, opp domain.Opportunity) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.nextID++
	opp.ID = s.nextID
	s.saved = append(s.saved, opp)
	return s.nextID, nil
}

func (s *memStore) MarkExecuted(_ context.Context, oppID int64, tradeID string) error {
	s.stamped[oppID] = tradeID
	return nil
}

func (s *memStore) CreateTrade(_ context.Context, _ domain.Trade) error { return nil }
func (s *memStore) UpdateTrade(_ context.Context, _ domain.Trade) error { return nil }

func (s *memStore) GetDailyPnL(_ context.Context) ([]domain.DailyPnL, error) {
	return s.pnl, s.pnlErr
}

func (s *memStore) Close() error { return nil }

// fakeDispatcher counts executions and can fail on selected calls.
type fakeDispatcher struct {
	notional float64
	calls    int
	failOn   map[int]bool // 1-based call index → fail
}

func (f *fakeDispatcher) Notional() float64 { return f.notional }

func (f *fakeDispatcher) Execute(_ context.Context, _ domain.Opportunity) (string, error) {
	f.calls++
	if f.failOn[f.calls] {
		return "", assert.AnError
	}
	return uuidLike(f.calls), nil
}

func uuidLike(n int) string {
	return "trade-" + string(rune('0'+n))
}

type nopNotifier struct{}

func (nopNotifier) Notify(_ context.Context, _ string) error { return nil }

func highOpp(desc string) domain.Opportunity {
	return domain.Opportunity{
		Kind:        domain.KindPriceMovement,
		DetectedAt:  time.Now(),
		Description: desc,
		Confidence:  domain.ConfidenceHigh,
	}
}

func testAgent(store ports.Storage, detectors []detector.Detector, disp *fakeDispatcher) *Agent {
	executors := executor.Registry{
		domain.KindPriceMovement: disp,
	}
	riskMgr := risk.NewManager(risk.Limits{
		MaxPositionSizeUSD: 100,
		MaxDailyLossUSD:    50,
		MaxTradesPerDay:    10,
	}, store, nil)
	return New(Config{
		ScanInterval:  time.Minute,
		MinConfidence: domain.ConfidenceHigh,
		AutoExecute:   true,
	}, detectors, executors, riskMgr, store, nopNotifier{})
}

func TestRunCycle_BoundsExecutionsPerCycle(t *testing.T) {
	var opps []domain.Opportunity
	for _, d := range []string{"a", "b", "c", "d", "e"} {
		opps = append(opps, highOpp(d))
	}
	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{&fakeDetector{name: "fake", opps: opps}}, disp)

	stop := a.RunCycle(context.Background())
	assert.False(t, stop)

	assert.Len(t, store.saved, 5, "all opportunities persisted, executed or not")
	assert.Equal(t, 3, disp.calls, "at most three dispatches per cycle")
	assert.Len(t, store.stamped, 3)
}

func TestRunCycle_FailedDispatchDoesNotPullExtraCandidate(t *testing.T) {
	var opps []domain.Opportunity
	for _, d := range []string{"a", "b", "c", "d", "e"} {
		opps = append(opps, highOpp(d))
	}
	store := newMemStore()
	disp := &fakeDispatcher{notional: 50, failOn: map[int]bool{2: true}}
	a := testAgent(store, []detector.Detector{&fakeDetector{name: "fake", opps: opps}}, disp)

	a.RunCycle(context.Background())

	// The bound is on attempts: three candidates tried, one of them failed.
	assert.Equal(t, 3, disp.calls)
	assert.Len(t, store.stamped, 2, "the failed candidate stays un-stamped")
}

func TestRunCycle_ConfidenceFilter(t *testing.T) {
	low := highOpp("low")
	low.Confidence = domain.ConfidenceLow
	medium := highOpp("medium")
	medium.Confidence = domain.ConfidenceMedium
	high := highOpp("high")

	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{low, medium, high}},
	}, disp)

	a.RunCycle(context.Background())

	assert.Len(t, store.saved, 3, "persistence ignores confidence")
	assert.Equal(t, 1, disp.calls, "only the high-confidence one qualifies")
}

func TestRunCycle_MinConfidenceMediumAlsoAdmitsHigh(t *testing.T) {
	low := highOpp("low")
	low.Confidence = domain.ConfidenceLow
	medium := highOpp("medium")
	medium.Confidence = domain.ConfidenceMedium
	high := highOpp("high")

	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{low, medium, high}},
	}, disp)
	a.cfg.MinConfidence = domain.ConfidenceMedium

	a.RunCycle(context.Background())

	// Medium matches the configured minimum exactly, high always qualifies,
	// low matches neither.
	assert.Equal(t, 2, disp.calls)
}

func TestRunCycle_DetectorFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "broken", err: assert.AnError},
		&fakeDetector{name: "fake", opps: []domain.Opportunity{highOpp("survivor")}},
	}, disp)

	stop := a.RunCycle(context.Background())

	assert.False(t, stop)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "survivor", store.saved[0].Description)
}

func TestRunCycle_StopFileTerminates(t *testing.T) {
	dir := t.TempDir()
	stopFile := filepath.Join(dir, "STOP_TRADING")
	require.NoError(t, os.WriteFile(stopFile, nil, 0o644))

	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{highOpp("x")}},
	}, disp)
	a.cfg.StopFile = stopFile

	stop := a.RunCycle(context.Background())

	assert.True(t, stop)
	assert.Empty(t, store.saved, "stop is checked before detection")
	assert.Zero(t, disp.calls)
}

func TestRunCycle_NotAuthorizedSkipsDetection(t *testing.T) {
	store := newMemStore()
	store.pnl = []domain.DailyPnL{
		{Strategy: domain.KindPriceMovement, TotalPnL: -60, TradeCount: 1},
	}
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{highOpp("x")}},
	}, disp)

	stop := a.RunCycle(context.Background())

	assert.False(t, stop, "a skipped cycle still schedules the next one")
	assert.Empty(t, store.saved)
	assert.Zero(t, disp.calls)
}

func TestRunCycle_AutoExecuteOffStillPersists(t *testing.T) {
	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{highOpp("x")}},
	}, disp)
	a.cfg.AutoExecute = false

	a.RunCycle(context.Background())

	assert.Len(t, store.saved, 1)
	assert.Zero(t, disp.calls)
}

func TestRunCycle_RiskDeniesOversizedNotional(t *testing.T) {
	store := newMemStore()
	disp := &fakeDispatcher{notional: 500} // above the 100 USD ceiling
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{highOpp("x")}},
	}, disp)

	a.RunCycle(context.Background())

	assert.Zero(t, disp.calls)
	assert.Len(t, store.saved, 1, "denied candidates are still persisted")
}

func TestRunCycle_NoDispatcherForKind(t *testing.T) {
	opp := highOpp("equity window")
	opp.Kind = domain.KindScheduledWindow

	store := newMemStore()
	disp := &fakeDispatcher{notional: 50} // registered for price_movement only
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{opp}},
	}, disp)

	stop := a.RunCycle(context.Background())

	assert.False(t, stop, "a missing dispatcher never aborts the cycle")
	assert.Zero(t, disp.calls)
}

func TestRunCycle_MispricingResolvesToMarketsDispatcher(t *testing.T) {
	opp := highOpp("sum way off")
	opp.Kind = domain.KindMispricing

	store := newMemStore()
	disp := &fakeDispatcher{notional: 50}
	a := testAgent(store, []detector.Detector{
		&fakeDetector{name: "fake", opps: []domain.Opportunity{opp}},
	}, disp)

	a.RunCycle(context.Background())

	assert.Equal(t, 1, disp.calls, "mispricing dispatches through the markets family")
}
