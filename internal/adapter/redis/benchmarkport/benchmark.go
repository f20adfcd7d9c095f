package benchmarkport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
)

const (
	benchmarkKeyPrefix = "benchmark:"
)

// BenchmarkRepository implements the BenchmarkRepository interface with Redis
type BenchmarkRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewBenchmarkRepository creates a new Redis benchmark repository
func NewBenchmarkRepository(redisClient *redis.Client, logger primary.Logger) *BenchmarkRepository {
	return &BenchmarkRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

// SaveBenchmark saves a benchmark to Redis
func (r *BenchmarkRepository) SaveBenchmark(ctx context.Context, benchmark *domain.Benchmark) error {
	benchmarkJSON, err := json.Marshal(benchmark)
	if err != nil {
		r.logger.Error("Failed to marshal benchmark", "error", err)
		return fmt.Errorf("failed to marshal benchmark: %w", err)
	}

	benchmarkKey := fmt.Sprintf("%s%s", benchmarkKeyPrefix, benchmark.ID)
	if err := r.redisClient.Set(ctx, benchmarkKey, benchmarkJSON, 0).Err(); err != nil {
		r.logger.Error("Failed to save benchmark", "error", err)
		return fmt.Errorf("failed to save benchmark: %w", err)
	}

	return nil
}

// GetBenchmark retrieves a benchmark from Redis by ID
func (r *BenchmarkRepository) GetBenchmark(ctx context.Context, benchmarkID string) (*domain.Benchmark, error) {
	benchmarkKey := fmt.Sprintf("%s%s", benchmarkKeyPrefix, benchmarkID)
	benchmarkJSON, err := r.redisClient.Get(ctx, benchmarkKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get benchmark", "error", err)
		return nil, fmt.Errorf("failed to get benchmark: %w", err)
	}

	var benchmark domain.Benchmark
	if err := json.Unmarshal(benchmarkJSON, &benchmark); err != nil {
		r.logger.Error("Failed to unmarshal benchmark", "error", err)
		return nil, fmt.Errorf("failed to unmarshal benchmark: %w", err)
	}

	return &benchmark, nil
}

// GetAllBenchmarks retrieves all benchmarks from Redis
func (r *BenchmarkRepository) GetAllBenchmarks(ctx context.Context) ([]*domain.Benchmark, error) {
	var cursor uint64
	var benchmarkKeys []string
	var benchmarks []*domain.Benchmark
	var err error

	// Use SCAN to iterate over keys with the specified prefix. The
	// "benchmark:" prefix is reserved for benchmark values only.
	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, benchmarkKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan benchmark keys: %w", err)
		}
		benchmarkKeys = append(benchmarkKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	if len(benchmarkKeys) == 0 {
		return benchmarks, nil
	}

	benchmarkData, err := r.redisClient.MGet(ctx, benchmarkKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve benchmark data: %w", err)
	}

	for _, data := range benchmarkData {
		if data == nil {
			continue
		}
		var benchmark domain.Benchmark
		if err := json.Unmarshal([]byte(data.(string)), &benchmark); err != nil {
			return nil, fmt.Errorf("failed to unmarshal benchmark data: %w", err)
		}
		benchmarks = append(benchmarks, &benchmark)
	}

	return benchmarks, nil
}

// AttachRun records a run ID on a benchmark's run history
func (r *BenchmarkRepository) AttachRun(ctx context.Context, benchmarkID, runID string) error {
	benchmark, err := r.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return err
	}
	if benchmark == nil {
		return errs.BenchmarkNotFound
	}

	benchmark.RunIDs = append(benchmark.RunIDs, runID)
	return r.SaveBenchmark(ctx, benchmark)
}
