package secondary

import (
	"context"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// BenchmarkRepository defines the interface for storing and retrieving
// benchmarks
type BenchmarkRepository interface {
	// SaveBenchmark saves a benchmark
	SaveBenchmark(ctx context.Context, benchmark *domain.Benchmark) error

	// GetBenchmark retrieves a benchmark by ID; (nil, nil) when absent
	GetBenchmark(ctx context.Context, benchmarkID string) (*domain.Benchmark, error)

	// GetAllBenchmarks retrieves all benchmarks
	GetAllBenchmarks(ctx context.Context) ([]*domain.Benchmark, error)

	// AttachRun records a run ID on a benchmark's run history
	AttachRun(ctx context.Context, benchmarkID, runID string) error
}

// TestCaseRepository defines the interface for retrieving test cases
type TestCaseRepository interface {
	// SaveTestCase saves a test case
	SaveTestCase(ctx context.Context, testCase *domain.TestCase) error

	// GetTestCase retrieves a test case by ID; (nil, nil) when absent
	GetTestCase(ctx context.Context, testCaseID string) (*domain.TestCase, error)

	// GetTestCases retrieves all test cases of a benchmark, in
	// benchmark order
	GetTestCases(ctx context.Context, benchmarkID string) ([]*domain.TestCase, error)
}

// RunRepository defines the interface for storing and retrieving runs
type RunRepository interface {
	// CreateRun persists a newly created run
	CreateRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by ID; (nil, nil) when absent
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// UpdateRun persists run mutations made by the orchestrator
	UpdateRun(ctx context.Context, run *domain.Run) error
}

// ReportRepository defines the interface for storing and retrieving
// evaluation reports
type ReportRepository interface {
	// SaveReport saves an evaluation report
	SaveReport(ctx context.Context, report *domain.EvaluationReport) error

	// GetReport retrieves a report by ID; (nil, nil) when absent
	GetReport(ctx context.Context, reportID string) (*domain.EvaluationReport, error)

	// GetReportsByRun retrieves all reports written during a run
	GetReportsByRun(ctx context.Context, runID string) ([]*domain.EvaluationReport, error)
}
