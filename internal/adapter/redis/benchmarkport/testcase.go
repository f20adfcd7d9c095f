package benchmarkport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

const (
	testCaseKeyPrefix   = "testcase:"
	testCaseIndexPrefix = "testcase:index:"
)

// TestCaseRepository implements the TestCaseRepository interface with Redis
type TestCaseRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewTestCaseRepository creates a new Redis test case repository
func NewTestCaseRepository(redisClient *redis.Client, logger primary.Logger) *TestCaseRepository {
	return &TestCaseRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

// SaveTestCase saves a test case to Redis and appends it to its
// benchmark's ordered index. Re-saving an existing test case keeps its
// index position.
func (r *TestCaseRepository) SaveTestCase(ctx context.Context, testCase *domain.TestCase) error {
	testCaseJSON, err := json.Marshal(testCase)
	if err != nil {
		r.logger.Error("Failed to marshal test case", "error", err)
		return fmt.Errorf("failed to marshal test case: %w", err)
	}

	testCaseKey := fmt.Sprintf("%s%s", testCaseKeyPrefix, testCase.ID)
	existed, err := r.redisClient.Exists(ctx, testCaseKey).Result()
	if err != nil {
		r.logger.Error("Failed to check test case existence", "error", err)
		return fmt.Errorf("failed to check test case existence: %w", err)
	}

	if err := r.redisClient.Set(ctx, testCaseKey, testCaseJSON, 0).Err(); err != nil {
		r.logger.Error("Failed to save test case", "error", err)
		return fmt.Errorf("failed to save test case: %w", err)
	}

	if existed == 0 {
		indexKey := fmt.Sprintf("%s%s", testCaseIndexPrefix, testCase.BenchmarkID)
		if err := r.redisClient.RPush(ctx, indexKey, testCase.ID).Err(); err != nil {
			r.logger.Error("Failed to index test case", "error", err)
			return fmt.Errorf("failed to index test case: %w", err)
		}
	}

	return nil
}

// GetTestCase retrieves a test case from Redis by ID
func (r *TestCaseRepository) GetTestCase(ctx context.Context, testCaseID string) (*domain.TestCase, error) {
	testCaseKey := fmt.Sprintf("%s%s", testCaseKeyPrefix, testCaseID)
	testCaseJSON, err := r.redisClient.Get(ctx, testCaseKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get test case", "error", err)
		return nil, fmt.Errorf("failed to get test case: %w", err)
	}

	var testCase domain.TestCase
	if err := json.Unmarshal(testCaseJSON, &testCase); err != nil {
		r.logger.Error("Failed to unmarshal test case", "error", err)
		return nil, fmt.Errorf("failed to unmarshal test case: %w", err)
	}

	return &testCase, nil
}

// GetTestCases retrieves a benchmark's test cases in index order
func (r *TestCaseRepository) GetTestCases(ctx context.Context, benchmarkID string) ([]*domain.TestCase, error) {
	indexKey := fmt.Sprintf("%s%s", testCaseIndexPrefix, benchmarkID)
	testCaseIDs, err := r.redisClient.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		r.logger.Error("Failed to get test case index", "error", err)
		return nil, fmt.Errorf("failed to get test case index: %w", err)
	}

	testCases := make([]*domain.TestCase, 0, len(testCaseIDs))
	for _, testCaseID := range testCaseIDs {
		testCase, err := r.GetTestCase(ctx, testCaseID)
		if err != nil {
			return nil, err
		}
		if testCase != nil {
			testCases = append(testCases, testCase)
		}
	}

	return testCases, nil
}
