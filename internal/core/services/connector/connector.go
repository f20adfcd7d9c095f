package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// Provider identifiers for the registered connector variants.
const (
	ProviderStreamingHTTP  = "streaming-http"
	ProviderChatCompletion = "chat-completion"
	ProviderSubprocess     = "subprocess"

	// DefaultProvider is used when a request names an unknown
	// provider.
	DefaultProvider = ProviderChatCompletion
)

// Endpoint identifies the agent implementation to invoke.
type Endpoint struct {
	URL       string
	AuthToken string
}

// Request carries everything a connector needs to drive one test case.
type Request struct {
	TestCase *domain.TestCase
	Model    string
}

// Result is the outcome of one connector execution.
type Result struct {
	Trajectory []domain.TrajectoryStep
	// RunID is the vendor-reported session identifier, when the agent
	// surface exposes one.
	RunID     string
	Metadata  map[string]interface{}
	RawEvents []json.RawMessage
}

// ProgressFunc is invoked synchronously once per produced step, in
// production order.
type ProgressFunc func(step domain.TrajectoryStep)

// RawEventFunc receives each unmodified wire payload for diagnostics.
type RawEventFunc func(raw json.RawMessage)

// Connector is the uniform interface for invoking an agent and
// obtaining a trajectory.
type Connector interface {
	// Name returns the provider identifier
	Name() string

	// SupportsStreaming reports whether steps are forwarded before the
	// agent finishes
	SupportsStreaming() bool

	// BuildPayload constructs the wire payload for a request
	BuildPayload(req *Request) (interface{}, error)

	// Execute invokes the agent and collects the trajectory
	Execute(ctx context.Context, endpoint Endpoint, req *Request, onProgress ProgressFunc, onRawEvent RawEventFunc) (*Result, error)

	// ParseResponse translates raw wire data into trajectory steps
	ParseResponse(raw []byte) ([]domain.TrajectoryStep, error)

	// HealthCheck reports whether the endpoint is reachable
	HealthCheck(ctx context.Context, endpoint Endpoint) bool
}

// Registry is an explicit provider table built once at startup and
// passed by reference; there is no module-level registry.
type Registry struct {
	byName      map[string]Connector
	defaultName string
	logger      primary.Logger
}

// NewRegistry creates a connector registry with the given default
// provider name.
func NewRegistry(defaultName string, logger primary.Logger) *Registry {
	if defaultName == "" {
		defaultName = DefaultProvider
	}
	return &Registry{
		byName:      make(map[string]Connector),
		defaultName: defaultName,
		logger:      logger,
	}
}

// Register adds a connector under its own name.
func (r *Registry) Register(c Connector) {
	r.byName[c.Name()] = c
}

// Resolve returns the connector for a provider name. Unknown names
// fall back to the default provider rather than erroring.
func (r *Registry) Resolve(provider string) (Connector, error) {
	if provider == "" {
		provider = r.defaultName
	}
	if c, ok := r.byName[provider]; ok {
		return c, nil
	}
	if r.logger != nil {
		r.logger.Warn("unknown connector provider, using default",
			"provider", provider,
			"default", r.defaultName)
	}
	if c, ok := r.byName[r.defaultName]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no connector registered for default provider %q", r.defaultName)
}

// classifyHTTPStatus turns an agent endpoint status code into a
// human-readable cause.
func classifyHTTPStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("agent endpoint rejected credentials (status %d)", status)
	case status == 404:
		return fmt.Errorf("agent endpoint not found (status %d)", status)
	case status == 429:
		return fmt.Errorf("agent endpoint rate limited the request (status %d)", status)
	case status >= 500:
		return fmt.Errorf("agent endpoint failed internally (status %d)", status)
	default:
		return fmt.Errorf("agent endpoint returned unexpected status %d", status)
	}
}
