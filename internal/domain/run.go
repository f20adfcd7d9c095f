package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled || s == RunStatusFailed
}

// ResultStatus represents the status of a single test case within a run
type ResultStatus string

const (
	ResultStatusCompleted ResultStatus = "completed"
	ResultStatusFailed    ResultStatus = "failed"
	ResultStatusPending   ResultStatus = "pending"
)

// TestCaseResult records how one test case resolved within a run.
// ReportID is empty when the test case failed before a report could be
// written or was never reached.
type TestCaseResult struct {
	ReportID string       `json:"reportId,omitempty"`
	Status   ResultStatus `json:"status"`
}

// Run represents one execution of a benchmark against a specific
// agent/model. Mutated by the orchestrator while in flight, immutable
// once the status is terminal.
type Run struct {
	ID            string                    `json:"id"`
	BenchmarkID   string                    `json:"benchmarkId"`
	AgentEndpoint string                    `json:"agentEndpoint"`
	Model         string                    `json:"model"`
	Connector     string                    `json:"connector,omitempty"`
	Status        RunStatus                 `json:"status"`
	Results       map[string]TestCaseResult `json:"results"`
	StartedAt     time.Time                 `json:"startedAt"`
	CompletedAt   *time.Time                `json:"completedAt,omitempty"`
}

// RunStats are aggregate counts derived from Results at read time;
// they are never stored.
type RunStats struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// NewRun creates a new run in the pending state
func NewRun(benchmarkID, agentEndpoint, model, connector string) *Run {
	return &Run{
		ID:            uuid.NewString(),
		BenchmarkID:   benchmarkID,
		AgentEndpoint: agentEndpoint,
		Model:         model,
		Connector:     connector,
		Status:        RunStatusPending,
		Results:       make(map[string]TestCaseResult),
		StartedAt:     time.Now(),
	}
}

// Stats counts result entries by status.
func (r *Run) Stats() RunStats {
	stats := RunStats{Total: len(r.Results)}
	for _, result := range r.Results {
		switch result.Status {
		case ResultStatusCompleted:
			stats.Passed++
		case ResultStatusFailed:
			stats.Failed++
		case ResultStatusPending:
			stats.Pending++
		}
	}
	return stats
}
