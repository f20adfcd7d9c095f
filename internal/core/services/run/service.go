package run

import (
	"context"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/stream"
)

// RunOptions selects the agent surface and providers for one run.
type RunOptions struct {
	AgentEndpoint     string
	Model             string
	AuthToken         string
	ConnectorProvider string
	JudgeProvider     string
}

// IRunService defines the interface for executing and managing
// benchmark runs
type IRunService interface {
	// ExecuteRun runs every test case of a benchmark sequentially,
	// emitting run events to the emitter, and returns the terminal
	// run. The returned error is run-level fatal only; per-test-case
	// failures are recorded in the run's results.
	ExecuteRun(ctx context.Context, benchmarkID string, opts RunOptions, emitter stream.Emitter) (*domain.Run, error)

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// CancelRun cooperatively cancels an active run. benchmarkID may
	// be empty, in which case the token is found by run ID alone.
	// Returns errs.RunNotActive when no token is registered.
	CancelRun(ctx context.Context, benchmarkID, runID string) error

	// GetReport retrieves an evaluation report by ID
	GetReport(ctx context.Context, reportID string) (*domain.EvaluationReport, error)

	// GetRunReports retrieves all reports written during a run
	GetRunReports(ctx context.Context, runID string) ([]*domain.EvaluationReport, error)
}
