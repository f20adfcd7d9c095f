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
	runKeyPrefix = "run:"
)

// RunRepository implements the RunRepository interface with Redis
type RunRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewRunRepository creates a new Redis run repository
func NewRunRepository(redisClient *redis.Client, logger primary.Logger) *RunRepository {
	return &RunRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

// CreateRun persists a newly created run
func (r *RunRepository) CreateRun(ctx context.Context, run *domain.Run) error {
	return r.saveRun(ctx, run)
}

// UpdateRun persists run mutations made by the orchestrator
func (r *RunRepository) UpdateRun(ctx context.Context, run *domain.Run) error {
	return r.saveRun(ctx, run)
}

func (r *RunRepository) saveRun(ctx context.Context, run *domain.Run) error {
	runJSON, err := json.Marshal(run)
	if err != nil {
		r.logger.Error("Failed to marshal run", "error", err)
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	runKey := fmt.Sprintf("%s%s", runKeyPrefix, run.ID)
	if err := r.redisClient.Set(ctx, runKey, runJSON, 0).Err(); err != nil {
		r.logger.Error("Failed to save run", "error", err)
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run from Redis by ID
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	runKey := fmt.Sprintf("%s%s", runKeyPrefix, runID)
	runJSON, err := r.redisClient.Get(ctx, runKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get run", "error", err)
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(runJSON, &run); err != nil {
		r.logger.Error("Failed to unmarshal run", "error", err)
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}
