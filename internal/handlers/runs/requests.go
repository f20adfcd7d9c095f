package runs

// StartRunRequest represents a request to start a benchmark run
type StartRunRequest struct {
	AgentEndpoint string `json:"agentEndpoint"`
	Model         string `json:"model"`
	Connector     string `json:"connector,omitempty"`
	Judge         string `json:"judge,omitempty"`
	AuthToken     string `json:"authToken,omitempty"`
}

// CancelRunRequest represents a request to cancel an active run.
// BenchmarkID is optional; the run is located by run ID alone when it
// is omitted.
type CancelRunRequest struct {
	BenchmarkID string `json:"benchmarkId,omitempty"`
	RunID       string `json:"runId"`
}

// CancelRunResponse acknowledges a cancellation request. Cancellation
// is cooperative, so the run may still finish its in-flight test case.
type CancelRunResponse struct {
	RunID     string `json:"runId"`
	Cancelled bool   `json:"cancelled"`
}
