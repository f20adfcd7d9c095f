package runreaper

import (
	"context"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/config"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/secondary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/run"
)

// RunReaper periodically releases cancellation tokens whose runs have
// already reached a terminal state. Tokens are normally released by the
// executing goroutine; the reaper covers tokens orphaned by a crashed
// or wedged execution so the registry cannot grow without bound.
type RunReaper struct {
	reaperCfg *config.OrchestratorCfg
	tokens    *run.CancelRegistry
	runRepo   secondary.RunRepository
	logger    primary.Logger
}

func NewRunReaper(
	reaperCfg *config.OrchestratorCfg,
	tokens *run.CancelRegistry,
	runRepo secondary.RunRepository,
	logger primary.Logger,
) *RunReaper {
	return &RunReaper{
		reaperCfg: reaperCfg,
		tokens:    tokens,
		runRepo:   runRepo,
		logger:    logger,
	}
}

// Start launches the reaper loop. It returns immediately; the loop
// stops when ctx is cancelled.
func (r *RunReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.reaperCfg.ReapInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.reapStaleTokens(ctx)
			}
		}
	}()
}

func (r *RunReaper) reapStaleTokens(ctx context.Context) {
	for _, key := range r.tokens.Active() {
		activeRun, err := r.runRepo.GetRun(ctx, key.RunID)
		if err != nil {
			r.logger.Error("Failed to get run for reaping", "runId", key.RunID, "error", err)
			continue
		}
		if activeRun == nil || activeRun.Status.IsTerminal() {
			r.tokens.Release(key.BenchmarkID, key.RunID)
			r.logger.Info("Reaped stale cancellation token", "benchmarkId", key.BenchmarkID, "runId", key.RunID)
		}
	}
}
