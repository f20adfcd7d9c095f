package run

import (
	"sync"
	"sync/atomic"
)

// CancelToken is the cooperative cancel flag for one in-flight run.
// Single writer (the cancel caller), single reader (the orchestrator
// loop); an already-started connector call is never interrupted.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel marks the token. Idempotent.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called.
func (t *CancelToken) IsCancelled() bool {
	return t.cancelled.Load()
}

// RunKey identifies an active run in the registry.
type RunKey struct {
	BenchmarkID string
	RunID       string
}

// CancelRegistry maps active (benchmarkId, runId) pairs to their
// cancellation tokens so an external cancel request can find them.
// This is the only mutable state shared across concurrent runs.
type CancelRegistry struct {
	mu     sync.Mutex
	tokens map[RunKey]*CancelToken
}

// NewCancelRegistry creates an empty registry
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{
		tokens: make(map[RunKey]*CancelToken),
	}
}

// Register creates and stores a fresh token for a run.
func (r *CancelRegistry) Register(benchmarkID, runID string) *CancelToken {
	token := &CancelToken{}
	r.mu.Lock()
	r.tokens[RunKey{BenchmarkID: benchmarkID, RunID: runID}] = token
	r.mu.Unlock()
	return token
}

// Release removes a run's token once the run reaches a terminal state.
func (r *CancelRegistry) Release(benchmarkID, runID string) {
	r.mu.Lock()
	delete(r.tokens, RunKey{BenchmarkID: benchmarkID, RunID: runID})
	r.mu.Unlock()
}

// Cancel marks the token for a run. Returns false when no token is
// registered (run not active).
func (r *CancelRegistry) Cancel(benchmarkID, runID string) bool {
	r.mu.Lock()
	token, ok := r.tokens[RunKey{BenchmarkID: benchmarkID, RunID: runID}]
	r.mu.Unlock()
	if !ok {
		return false
	}
	token.Cancel()
	return true
}

// CancelByRunID marks the token for a run when the caller does not
// know the benchmark. Returns false when no token matches.
func (r *CancelRegistry) CancelByRunID(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if key.RunID == runID {
			token.Cancel()
			return true
		}
	}
	return false
}

// Active returns the keys of all registered runs.
func (r *CancelRegistry) Active() []RunKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]RunKey, 0, len(r.tokens))
	for key := range r.tokens {
		keys = append(keys, key)
	}
	return keys
}
