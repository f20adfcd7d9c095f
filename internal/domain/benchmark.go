package domain

import (
	"time"

	"github.com/google/uuid"
)

// Benchmark represents a named collection of test cases plus the runs
// that have been executed against it.
type Benchmark struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TestCaseIDs []string  `json:"testCaseIds"`
	RunIDs      []string  `json:"runIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContextEntry is one piece of background conversation supplied to the
// agent before the initial prompt.
type ContextEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a tool made available to the agent for a test case.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TestCase represents a scripted scenario an agent is evaluated
// against. Immutable per version.
type TestCase struct {
	ID                 string           `json:"id"`
	BenchmarkID        string           `json:"benchmarkId"`
	Name               string           `json:"name"`
	InitialPrompt      string           `json:"initialPrompt"`
	Context            []ContextEntry   `json:"context,omitempty"`
	ExpectedOutcomes   []string         `json:"expectedOutcomes,omitempty"`
	ExpectedTrajectory []TrajectoryStep `json:"expectedTrajectory,omitempty"`
	Tools              []Tool           `json:"tools,omitempty"`
	Version            int              `json:"version"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// NewBenchmark creates a new benchmark
func NewBenchmark(name, description string) *Benchmark {
	now := time.Now()
	return &Benchmark{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
