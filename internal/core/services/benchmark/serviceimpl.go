package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/config"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/secondary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
)

var _ IBenchmarkService = (*BenchmarkService)(nil)

// BenchmarkService implements the BenchmarkService interface
type BenchmarkService struct {
	benchmarkRepo secondary.BenchmarkRepository
	testCaseRepo  secondary.TestCaseRepository
	logger        primary.Logger
}

// NewBenchmarkService creates a new benchmark service
func NewBenchmarkService(
	benchmarkRepo secondary.BenchmarkRepository,
	testCaseRepo secondary.TestCaseRepository,
	logger primary.Logger,
) *BenchmarkService {
	return &BenchmarkService{
		benchmarkRepo: benchmarkRepo,
		testCaseRepo:  testCaseRepo,
		logger:        logger,
	}
}

// GetBenchmark retrieves a benchmark by ID
func (s *BenchmarkService) GetBenchmark(ctx context.Context, benchmarkID string) (*domain.Benchmark, error) {
	benchmark, err := s.benchmarkRepo.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get benchmark: %w", err)
	}
	if benchmark == nil {
		return nil, errs.BenchmarkNotFound
	}
	return benchmark, nil
}

// GetAllBenchmarks retrieves all benchmarks
func (s *BenchmarkService) GetAllBenchmarks(ctx context.Context) ([]*domain.Benchmark, error) {
	benchmarks, err := s.benchmarkRepo.GetAllBenchmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get benchmarks: %w", err)
	}
	return benchmarks, nil
}

// GetTestCases retrieves a benchmark's test cases in order
func (s *BenchmarkService) GetTestCases(ctx context.Context, benchmarkID string) ([]*domain.TestCase, error) {
	testCases, err := s.testCaseRepo.GetTestCases(ctx, benchmarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}
	return testCases, nil
}

// SeedSuite persists the benchmarks and test cases of a suite file.
// Existing entries with the same IDs are overwritten, so the suite
// file stays the source of truth across restarts.
func (s *BenchmarkService) SeedSuite(ctx context.Context, suite *config.BenchmarkSuite) error {
	for _, sb := range suite.Benchmarks {
		now := time.Now()
		benchmark := &domain.Benchmark{
			ID:          sb.ID,
			Name:        sb.Name,
			Description: sb.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		for _, stc := range sb.TestCases {
			testCase := &domain.TestCase{
				ID:               stc.ID,
				BenchmarkID:      sb.ID,
				Name:             stc.Name,
				InitialPrompt:    stc.InitialPrompt,
				ExpectedOutcomes: stc.ExpectedOutcomes,
				Version:          1,
				CreatedAt:        now,
			}
			for _, entry := range stc.Context {
				testCase.Context = append(testCase.Context, domain.ContextEntry{Role: entry.Role, Content: entry.Content})
			}
			for _, tool := range stc.Tools {
				testCase.Tools = append(testCase.Tools, domain.Tool{Name: tool.Name, Description: tool.Description})
			}

			if err := s.testCaseRepo.SaveTestCase(ctx, testCase); err != nil {
				return fmt.Errorf("failed to seed test case %q: %w", stc.ID, err)
			}
			benchmark.TestCaseIDs = append(benchmark.TestCaseIDs, stc.ID)
		}

		if err := s.benchmarkRepo.SaveBenchmark(ctx, benchmark); err != nil {
			return fmt.Errorf("failed to seed benchmark %q: %w", sb.ID, err)
		}
		s.logger.Info("benchmark seeded", "benchmarkId", sb.ID, "testCases", len(sb.TestCases))
	}
	return nil
}
