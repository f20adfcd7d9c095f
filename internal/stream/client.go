package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/static/errs"
)

// StartRunRequest is the body posted to the run endpoint.
type StartRunRequest struct {
	AgentEndpoint string `json:"agentEndpoint"`
	Model         string `json:"model"`
	Connector     string `json:"connector,omitempty"`
	Judge         string `json:"judge,omitempty"`
	AuthToken     string `json:"authToken,omitempty"`
}

// RunError is a run-level failure reported by the server as a terminal
// error event on the stream.
type RunError struct {
	RunID   string
	Message string
}

func (e *RunError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("run %s failed: %s", e.RunID, e.Message)
	}
	return fmt.Sprintf("run failed: %s", e.Message)
}

// Client consumes a run's event stream and degrades to polling the
// run status endpoint when the stream is lost mid-run.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       primary.Logger
}

// NewClient creates a stream client against a server base URL.
func NewClient(httpClient *http.Client, baseURL string, pollInterval time.Duration, logger primary.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// StartRun starts a benchmark run and follows its event stream to a
// terminal state. If the stream breaks after the run has identified
// itself, the final run state is recovered by polling.
func (c *Client) StartRun(ctx context.Context, benchmarkID string, startReq StartRunRequest) (*domain.Run, error) {
	body, err := json.Marshal(startReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal start request: %w", err)
	}

	url := fmt.Sprintf("%s/api/benchmarks/%s/run", c.baseURL, benchmarkID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("run endpoint returned status %d", resp.StatusCode)
	}

	return c.followStream(ctx, resp.Body)
}

// followStream reads events until a terminal event, the end of the
// stream, or a transport failure. Exposed to the run endpoint's
// response body; tests feed it synthetic readers via FollowStream.
func (c *Client) followStream(ctx context.Context, body io.Reader) (*domain.Run, error) {
	scanner := NewFrameScanner(body)
	var runID string

	for scanner.Next() {
		var env Envelope
		if err := json.Unmarshal([]byte(scanner.Data()), &env); err != nil {
			// Malformed vendor output must not abort the stream.
			if c.logger != nil {
				c.logger.Debug("skipping unparseable stream frame", "error", err)
			}
			continue
		}

		switch env.Type {
		case EventStarted:
			if runID == "" {
				runID = env.RunID
			}
		case EventCompleted, EventCancelled:
			return env.Run, nil
		case EventError:
			return nil, &RunError{RunID: env.RunID, Message: env.Error}
		}
	}

	if err := scanner.Err(); err != nil {
		// Transport failure. Recoverable only when the run has
		// identified itself.
		if runID == "" {
			return nil, err
		}
		if c.logger != nil {
			c.logger.Warn("run stream disconnected, falling back to polling", "runId", runID, "error", err)
		}
		return c.pollUntilTerminal(ctx, runID)
	}

	// Clean end of stream without a terminal event.
	if runID != "" {
		return c.pollUntilTerminal(ctx, runID)
	}
	return nil, errs.NoFinalResult
}

// FollowStream consumes an already-open event stream body.
func (c *Client) FollowStream(ctx context.Context, body io.Reader) (*domain.Run, error) {
	return c.followStream(ctx, body)
}

// GetRun fetches a run's current state.
func (c *Client) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	url := fmt.Sprintf("%s/api/runs/%s", c.baseURL, runID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.RunNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("run endpoint returned status %d", resp.StatusCode)
	}

	var run domain.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &run, nil
}

// pollUntilTerminal repeatedly fetches the run until its status is
// terminal.
func (c *Client) pollUntilTerminal(ctx context.Context, runID string) (*domain.Run, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if run.Status.IsTerminal() {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
