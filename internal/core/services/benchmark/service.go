package benchmark

import (
	"context"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/config"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// IBenchmarkService defines the interface for managing benchmarks and
// their test cases
type IBenchmarkService interface {
	// GetBenchmark retrieves a benchmark by ID
	GetBenchmark(ctx context.Context, benchmarkID string) (*domain.Benchmark, error)

	// GetAllBenchmarks retrieves all benchmarks
	GetAllBenchmarks(ctx context.Context) ([]*domain.Benchmark, error)

	// GetTestCases retrieves a benchmark's test cases in order
	GetTestCases(ctx context.Context, benchmarkID string) ([]*domain.TestCase, error)

	// SeedSuite persists the benchmarks and test cases of a suite file
	SeedSuite(ctx context.Context, suite *config.BenchmarkSuite) error
}
