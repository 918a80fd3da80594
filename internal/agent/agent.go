// Package agent contains the scan-cycle orchestrator: it fans out to the
// signal detectors, merges and persists their opportunities, and dispatches
// a bounded number of risk-gated executions per cycle.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/tradebot/internal/detector"
	"github.com/alejandrodnm/tradebot/internal/domain"
	"github.com/alejandrodnm/tradebot/internal/executor"
	"github.com/alejandrodnm/tradebot/internal/ports"
	"github.com/alejandrodnm/tradebot/internal/risk"
)

// maxExecutionsPerCycle bounds how many opportunities are dispatched in one
// cycle, regardless of how many qualify.
const maxExecutionsPerCycle = 3

// Config controls the orchestrator loop.
type Config struct {
	ScanInterval  time.Duration
	StopFile      string
	MinConfidence domain.Confidence
	AutoExecute   bool
}

// Agent runs the scan cycle: detect → persist → filter → execute → report.
// A single goroutine drives the loop; cycle N+1 never starts before cycle N
// finishes, so the risk manager sees strictly serialized calls.
type Agent struct {
	cfg       Config
	detectors []detector.Detector // invocation order is the canonical merge order
	executors executor.Registry
	risk      *risk.Manager
	store     ports.Storage
	notifier  ports.Notifier
	reporter  ports.Reporter // opcional, tabla de consola por ciclo
}

// New creates an Agent with all dependencies injected. Only enabled
// detectors should be passed; their slice order fixes the ordering of the
// merged opportunity list.
func New(
	cfg Config,
	detectors []detector.Detector,
	executors executor.Registry,
	riskMgr *risk.Manager,
	store ports.Storage,
	notifier ports.Notifier,
) *Agent {
	return &Agent{
		cfg:       cfg,
		detectors: detectors,
		executors: executors,
		risk:      riskMgr,
		store:     store,
		notifier:  notifier,
	}
}

// SetReporter attaches an optional per-cycle reporter (the console table).
func (a *Agent) SetReporter(r ports.Reporter) {
	a.reporter = r
}

// Run executes scan cycles until the context is cancelled or the stop file
// appears. The stop file is only polled at cycle boundaries: an in-flight
// cycle always completes before the loop honors a stop request.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("agent starting",
		"interval", a.cfg.ScanInterval,
		"detectors", len(a.detectors),
		"auto_execute", a.cfg.AutoExecute,
		"min_confidence", a.cfg.MinConfidence.String(),
	)

	if stop := a.RunCycle(ctx); stop {
		return nil
	}

	ticker := time.NewTicker(a.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("agent stopped (signal)")
			return nil
		case <-ticker.C:
			if stop := a.RunCycle(ctx); stop {
				return nil
			}
		}
	}
}

// RunCycle executes exactly one scan cycle. It returns true when the stop
// signal was observed and no further cycles should be scheduled.
func (a *Agent) RunCycle(ctx context.Context) (stop bool) {
	start := time.Now()

	// 1. External stop signal — terminal, no auto-resume.
	if a.stopRequested() {
		slog.Warn("agent: stop file detected, shutting down", "file", a.cfg.StopFile)
		return true
	}

	// 2. Daily limits. Not authorized → skip this cycle entirely, but keep
	// scheduling future ones (a new day relaxes the trade-count throttle).
	authorized, err := a.risk.CheckDailyLimits(ctx)
	if err != nil {
		slog.Error("agent: daily limit check failed, skipping cycle", "err", err)
		return false
	}
	if !authorized {
		slog.Warn("agent: execution not authorized, skipping cycle",
			"trading_enabled", a.risk.Enabled())
		return false
	}

	// 3. Fan out to detectors, preserving invocation order. One failing
	// source contributes zero opportunities and never aborts the others.
	var opps []domain.Opportunity
	for _, det := range a.detectors {
		found, err := det.Detect(ctx)
		if err != nil {
			slog.Error("agent: detector failed", "detector", det.Name(), "err", err)
			continue
		}
		slog.Debug("agent: detector done", "detector", det.Name(), "found", len(found))
		opps = append(opps, found...)
	}

	// 4. Persist everything from this cycle, in canonical order, before any
	// execution is dispatched.
	for i := range opps {
		id, err := a.store.SaveOpportunity(ctx, opps[i])
		if err != nil {
			slog.Warn("agent: failed to persist opportunity",
				"kind", opps[i].Kind, "err", err)
			continue
		}
		opps[i].ID = id
	}

	// 5. Confidence filter. This matches the configured minimum OR anything
	// tagged high — so with the default high minimum, and in practice with
	// any minimum, only high-confidence opportunities are auto-acted on.
	candidates := make([]int, 0, len(opps))
	for i := range opps {
		if opps[i].Confidence == a.cfg.MinConfidence || opps[i].Confidence == domain.ConfidenceHigh {
			candidates = append(candidates, i)
		}
	}

	// 6. Dispatch at most maxExecutionsPerCycle, in established order.
	executed := 0
	if a.cfg.AutoExecute {
		executed = a.execute(ctx, opps, candidates)
	}

	// 7. Cycle summary.
	if a.reporter != nil {
		if err := a.reporter.Report(ctx, opps); err != nil {
			slog.Warn("agent: reporter error", "err", err)
		}
	}
	a.logSummary(ctx, len(opps), len(candidates), executed, time.Since(start))
	return false
}

// execute dispatches the first maxExecutionsPerCycle candidates through
// their kind's dispatcher, consulting the risk manager per candidate. The
// bound is on dispatch attempts, not successes: a failed candidate does not
// pull a fourth one into the cycle.
func (a *Agent) execute(ctx context.Context, opps []domain.Opportunity, candidates []int) int {
	if len(candidates) > maxExecutionsPerCycle {
		candidates = candidates[:maxExecutionsPerCycle]
	}

	executed := 0
	for _, i := range candidates {
		opp := &opps[i]

		disp, ok := a.executors.For(opp.Kind)
		if !ok {
			slog.Error("agent: no dispatcher for kind", "kind", opp.Kind)
			continue
		}
		if !a.risk.CanExecute(disp.Notional()) {
			slog.Warn("agent: execution denied by risk manager",
				"kind", opp.Kind, "notional", disp.Notional())
			continue
		}

		tradeID, err := disp.Execute(ctx, *opp)
		if err != nil {
			// Class (d): recorded against the trade, opportunity stays
			// un-stamped. It is only reconsidered if re-detected later.
			slog.Error("agent: execution failed", "kind", opp.Kind, "err", err)
			continue
		}

		opp.Executed = true
		opp.TradeRef = tradeID
		if opp.ID != 0 {
			if err := a.store.MarkExecuted(ctx, opp.ID, tradeID); err != nil {
				slog.Warn("agent: failed to stamp opportunity", "id", opp.ID, "err", err)
			}
		}
		executed++

		a.notify(ctx, fmt.Sprintf("Trade dispatched (%s)\n\n%s\n\nTrade ID: %s",
			opp.Kind, opp.Description, tradeID))
	}
	return executed
}

// logSummary emits the end-of-cycle line with counts and current daily P&L.
func (a *Agent) logSummary(ctx context.Context, total, candidates, executed int, elapsed time.Duration) {
	var dailyPnL float64
	if stats, err := a.store.GetDailyPnL(ctx); err == nil {
		for _, s := range stats {
			dailyPnL += s.TotalPnL
		}
	} else {
		slog.Debug("agent: daily pnl unavailable for summary", "err", err)
	}

	slog.Info("scan cycle complete",
		"opportunities", total,
		"candidates", candidates,
		"executed", executed,
		"daily_pnl", fmt.Sprintf("%.2f", dailyPnL),
		"duration", elapsed.Round(time.Millisecond),
	)
}

// stopRequested reports whether the operator stop file exists.
func (a *Agent) stopRequested() bool {
	if a.cfg.StopFile == "" {
		return false
	}
	_, err := os.Stat(a.cfg.StopFile)
	return err == nil
}

// notify pushes an operator alert, best-effort.
func (a *Agent) notify(ctx context.Context, text string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, text); err != nil {
		slog.Warn("agent: notifier error", "err", err)
	}
}
