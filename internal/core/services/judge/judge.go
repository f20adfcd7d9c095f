package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// Provider identifiers for the registered judge variants.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"

	// DefaultProvider is used when a request names an unknown
	// provider.
	DefaultProvider = ProviderOpenAI
)

// PassThreshold is the minimum accuracy for a passed verdict, absent
// critical failures.
const PassThreshold = 70

// Expectation is what a trajectory is scored against: either a list of
// expected outcomes or a full expected trajectory.
type Expectation struct {
	Outcomes   []string
	Trajectory []domain.TrajectoryStep
}

// Evaluation is the scored verdict for one trajectory.
type Evaluation struct {
	PassFailStatus        domain.PassFailStatus
	Accuracy              int
	Reasoning             string
	ImprovementStrategies []domain.ImprovementStrategy
	Duration              time.Duration
}

// Judge scores a trajectory against expected outcomes.
type Judge interface {
	// Name returns the provider identifier
	Name() string

	// Evaluate scores a trajectory. A malformed judge response is a
	// recoverable evaluation failure (accuracy 0, status failed), not
	// an error; errors are reserved for transport-level failures.
	Evaluate(ctx context.Context, trajectory []domain.TrajectoryStep, expected Expectation, modelID string) (*Evaluation, error)
}

// Registry is an explicit judge table built once at startup and passed
// by reference.
type Registry struct {
	byName      map[string]Judge
	defaultName string
	logger      primary.Logger
}

// NewRegistry creates a judge registry with the given default provider
// name.
func NewRegistry(defaultName string, logger primary.Logger) *Registry {
	if defaultName == "" {
		defaultName = DefaultProvider
	}
	return &Registry{
		byName:      make(map[string]Judge),
		defaultName: defaultName,
		logger:      logger,
	}
}

// Register adds a judge under its own name.
func (r *Registry) Register(j Judge) {
	r.byName[j.Name()] = j
}

// Resolve returns the judge for a provider name. Unknown names fall
// back to the default provider rather than erroring.
func (r *Registry) Resolve(provider string) (Judge, error) {
	if provider == "" {
		provider = r.defaultName
	}
	if j, ok := r.byName[provider]; ok {
		return j, nil
	}
	if r.logger != nil {
		r.logger.Warn("unknown judge provider, using default",
			"provider", provider,
			"default", r.defaultName)
	}
	if j, ok := r.byName[r.defaultName]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("no judge registered for default provider %q", r.defaultName)
}
