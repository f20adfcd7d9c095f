package run

import (
	"context"
	"fmt"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/secondary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/connector"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/judge"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/stream"
)

var _ IRunService = (*RunService)(nil)

// RunService implements the run orchestrator: it iterates a
// benchmark's test cases sequentially, drives the connector and judge
// per test case, persists results, and advances the run state machine.
type RunService struct {
	benchmarkRepo secondary.BenchmarkRepository
	testCaseRepo  secondary.TestCaseRepository
	runRepo       secondary.RunRepository
	reportRepo    secondary.ReportRepository
	connectors    *connector.Registry
	judges        *judge.Registry
	tokens        *CancelRegistry
	logger        primary.Logger
}

// NewRunService creates a new run service
func NewRunService(
	benchmarkRepo secondary.BenchmarkRepository,
	testCaseRepo secondary.TestCaseRepository,
	runRepo secondary.RunRepository,
	reportRepo secondary.ReportRepository,
	connectors *connector.Registry,
	judges *judge.Registry,
	tokens *CancelRegistry,
	logger primary.Logger,
) *RunService {
	return &RunService{
		benchmarkRepo: benchmarkRepo,
		testCaseRepo:  testCaseRepo,
		runRepo:       runRepo,
		reportRepo:    reportRepo,
		connectors:    connectors,
		judges:        judges,
		tokens:        tokens,
		logger:        logger,
	}
}

// Tokens exposes the cancellation registry for the reaper and the
// cancel endpoint.
func (s *RunService) Tokens() *CancelRegistry {
	return s.tokens
}

// ExecuteRun runs a benchmark end to end. Events are emitted in order:
// started, then per test case progress followed by its step events,
// then exactly one terminal event.
func (s *RunService) ExecuteRun(ctx context.Context, benchmarkID string, opts RunOptions, emitter stream.Emitter) (*domain.Run, error) {
	benchmark, err := s.benchmarkRepo.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, s.fatal(emitter, "", fmt.Errorf("failed to load benchmark: %w", err))
	}
	if benchmark == nil {
		return nil, s.fatal(emitter, "", errs.BenchmarkNotFound)
	}

	testCases, err := s.testCaseRepo.GetTestCases(ctx, benchmarkID)
	if err != nil {
		return nil, s.fatal(emitter, "", fmt.Errorf("failed to load test cases: %w", err))
	}

	conn, err := s.connectors.Resolve(opts.ConnectorProvider)
	if err != nil {
		return nil, s.fatal(emitter, "", err)
	}
	jud, err := s.judges.Resolve(opts.JudgeProvider)
	if err != nil {
		return nil, s.fatal(emitter, "", err)
	}

	run := domain.NewRun(benchmarkID, opts.AgentEndpoint, opts.Model, conn.Name())
	testCaseIDs := make([]string, 0, len(testCases))
	for _, testCase := range testCases {
		testCaseIDs = append(testCaseIDs, testCase.ID)
		run.Results[testCase.ID] = domain.TestCaseResult{Status: domain.ResultStatusPending}
	}

	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, s.fatal(emitter, "", fmt.Errorf("failed to create run: %w", err))
	}
	if err := s.benchmarkRepo.AttachRun(ctx, benchmarkID, run.ID); err != nil {
		// Run history linkage is best effort; the run itself proceeds.
		s.logger.Warn("failed to attach run to benchmark", "benchmarkId", benchmarkID, "runId", run.ID, "error", err)
	}

	token := s.tokens.Register(benchmarkID, run.ID)
	defer s.tokens.Release(benchmarkID, run.ID)

	run.Status = domain.RunStatusRunning
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return nil, s.fatal(emitter, run.ID, fmt.Errorf("failed to update run: %w", err))
	}

	s.logger.Info("run started",
		"runId", run.ID,
		"benchmarkId", benchmarkID,
		"connector", conn.Name(),
		"testCases", len(testCases))
	s.emit(emitter, stream.NewStartedEvent(run.ID, testCaseIDs))

	endpoint := connector.Endpoint{URL: opts.AgentEndpoint, AuthToken: opts.AuthToken}
	total := len(testCases)

	for i, testCase := range testCases {
		// Cooperative cancellation: only observed here, at the test
		// case boundary.
		if token.IsCancelled() {
			break
		}

		s.emit(emitter, stream.NewProgressEvent(i, total, testCase.ID))
		s.runTestCase(ctx, run, testCase, conn, jud, endpoint, opts.Model, emitter)

		if err := s.runRepo.UpdateRun(ctx, run); err != nil {
			s.logger.Error("failed to persist run progress", "runId", run.ID, "error", err)
		}
	}

	if token.IsCancelled() {
		run.Status = domain.RunStatusCancelled
	} else {
		run.Status = domain.RunStatusCompleted
	}
	now := time.Now()
	run.CompletedAt = &now

	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return nil, s.fatal(emitter, run.ID, fmt.Errorf("failed to finalize run: %w", err))
	}

	stats := run.Stats()
	s.logger.Info("run finished",
		"runId", run.ID,
		"status", run.Status,
		"passed", stats.Passed,
		"failed", stats.Failed,
		"pending", stats.Pending)

	if run.Status == domain.RunStatusCancelled {
		s.emit(emitter, stream.NewCancelledEvent(run))
	} else {
		s.emit(emitter, stream.NewCompletedEvent(run))
	}
	return run, nil
}

// runTestCase resolves a single test case, recording either a
// completed result with a report or a failed result. A failure here
// never aborts the run.
func (s *RunService) runTestCase(
	ctx context.Context,
	run *domain.Run,
	testCase *domain.TestCase,
	conn connector.Connector,
	jud judge.Judge,
	endpoint connector.Endpoint,
	model string,
	emitter stream.Emitter,
) {
	stepIndex := 0
	onProgress := func(step domain.TrajectoryStep) {
		s.emit(emitter, stream.NewStepEvent(stepIndex, step))
		stepIndex++
	}

	execResult, err := conn.Execute(ctx, endpoint, &connector.Request{TestCase: testCase, Model: model}, onProgress, nil)
	if err != nil {
		s.logger.Error("connector execution failed",
			"runId", run.ID,
			"testCaseId", testCase.ID,
			"error", err)
		run.Results[testCase.ID] = domain.TestCaseResult{Status: domain.ResultStatusFailed}
		return
	}

	expectation := judge.Expectation{
		Outcomes:   testCase.ExpectedOutcomes,
		Trajectory: testCase.ExpectedTrajectory,
	}
	evaluation, err := jud.Evaluate(ctx, execResult.Trajectory, expectation, model)
	if err != nil {
		s.logger.Error("judge evaluation failed",
			"runId", run.ID,
			"testCaseId", testCase.ID,
			"error", err)
		run.Results[testCase.ID] = domain.TestCaseResult{Status: domain.ResultStatusFailed}
		return
	}

	report := domain.NewEvaluationReport(run.ID, testCase.ID)
	report.PassFailStatus = evaluation.PassFailStatus
	report.Metrics.Accuracy = evaluation.Accuracy
	report.LLMJudgeReasoning = evaluation.Reasoning
	report.ImprovementStrategies = evaluation.ImprovementStrategies
	report.Trajectory = execResult.Trajectory
	report.DurationMs = evaluation.Duration.Milliseconds()

	if err := s.reportRepo.SaveReport(ctx, report); err != nil {
		s.logger.Error("failed to save evaluation report",
			"runId", run.ID,
			"testCaseId", testCase.ID,
			"error", err)
		run.Results[testCase.ID] = domain.TestCaseResult{Status: domain.ResultStatusFailed}
		return
	}

	run.Results[testCase.ID] = domain.TestCaseResult{
		ReportID: report.ID,
		Status:   domain.ResultStatusCompleted,
	}
}

// GetRun retrieves a run by ID
func (s *RunService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	run, err := s.runRepo.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, errs.RunNotFound
	}
	return run, nil
}

// CancelRun cooperatively cancels an active run.
func (s *RunService) CancelRun(ctx context.Context, benchmarkID, runID string) error {
	var found bool
	if benchmarkID != "" {
		found = s.tokens.Cancel(benchmarkID, runID)
	} else {
		found = s.tokens.CancelByRunID(runID)
	}
	if !found {
		return errs.RunNotActive
	}
	s.logger.Info("run cancellation requested", "runId", runID)
	return nil
}

// GetReport retrieves an evaluation report by ID
func (s *RunService) GetReport(ctx context.Context, reportID string) (*domain.EvaluationReport, error) {
	report, err := s.reportRepo.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil {
		return nil, errs.ReportNotFound
	}
	return report, nil
}

// GetRunReports retrieves all reports written during a run
func (s *RunService) GetRunReports(ctx context.Context, runID string) ([]*domain.EvaluationReport, error) {
	reports, err := s.reportRepo.GetReportsByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run reports: %w", err)
	}
	return reports, nil
}

// emit forwards an event, tolerating a broken stream: a disconnected
// client does not stop the run, it can recover by polling.
func (s *RunService) emit(emitter stream.Emitter, event interface{}) {
	if emitter == nil {
		return
	}
	if err := emitter.Emit(event); err != nil {
		s.logger.Debug("failed to emit run event", "error", err)
	}
}

// fatal reports a run-level failure: the run (when one exists) is
// marked failed and a terminal error event is emitted.
func (s *RunService) fatal(emitter stream.Emitter, runID string, err error) error {
	s.logger.Error("run failed", "runId", runID, "error", err)
	if runID != "" {
		run, getErr := s.runRepo.GetRun(context.Background(), runID)
		if getErr == nil && run != nil && !run.Status.IsTerminal() {
			run.Status = domain.RunStatusFailed
			now := time.Now()
			run.CompletedAt = &now
			if updErr := s.runRepo.UpdateRun(context.Background(), run); updErr != nil {
				s.logger.Error("failed to mark run as failed", "runId", runID, "error", updErr)
			}
		}
	}
	s.emit(emitter, stream.NewErrorEvent(err, runID))
	return err
}
