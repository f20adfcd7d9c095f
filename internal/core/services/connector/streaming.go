package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/stream"
)

// agentWireEvent is the incremental frame shape emitted by
// streaming-capable agent endpoints.
type agentWireEvent struct {
	Type     string                 `json:"type"`
	Content  string                 `json:"content"`
	ToolName string                 `json:"toolName,omitempty"`
	ToolArgs map[string]interface{} `json:"toolArgs,omitempty"`
	Status   string                 `json:"status,omitempty"`
	RunID    string                 `json:"runId,omitempty"`
}

// StreamingHTTPConnector drives agents that expose a long-lived
// event-stream response. Each incremental frame is parsed into zero or
// more trajectory steps and forwarded immediately.
type StreamingHTTPConnector struct {
	httpClient *http.Client
	logger     primary.Logger
}

var _ Connector = (*StreamingHTTPConnector)(nil)

// NewStreamingHTTPConnector creates a streaming HTTP connector
func NewStreamingHTTPConnector(httpClient *http.Client, logger primary.Logger) *StreamingHTTPConnector {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &StreamingHTTPConnector{httpClient: httpClient, logger: logger}
}

func (c *StreamingHTTPConnector) Name() string { return ProviderStreamingHTTP }

func (c *StreamingHTTPConnector) SupportsStreaming() bool { return true }

// BuildPayload constructs the invocation payload sent to the agent
// endpoint.
func (c *StreamingHTTPConnector) BuildPayload(req *Request) (interface{}, error) {
	if req == nil || req.TestCase == nil {
		return nil, fmt.Errorf("request has no test case")
	}
	return map[string]interface{}{
		"testCaseId": req.TestCase.ID,
		"prompt":     req.TestCase.InitialPrompt,
		"context":    req.TestCase.Context,
		"tools":      req.TestCase.Tools,
		"model":      req.Model,
		"stream":     true,
	}, nil
}

// Execute opens the agent's event stream and forwards steps as they
// arrive.
func (c *StreamingHTTPConnector) Execute(ctx context.Context, endpoint Endpoint, req *Request, onProgress ProgressFunc, onRawEvent RawEventFunc) (*Result, error) {
	payload, err := c.BuildPayload(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if endpoint.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+endpoint.AuthToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPStatus(resp.StatusCode)
	}

	result := &Result{Metadata: map[string]interface{}{
		"connector": c.Name(),
		"model":     req.Model,
	}}

	scanner := stream.NewFrameScanner(resp.Body)
	for scanner.Next() {
		raw := json.RawMessage(scanner.Data())
		result.RawEvents = append(result.RawEvents, raw)
		if onRawEvent != nil {
			onRawEvent(raw)
		}

		steps, err := c.ParseResponse(raw)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("skipping unparseable agent frame", "error", err)
			}
			continue
		}
		for _, step := range steps {
			result.Trajectory = append(result.Trajectory, step)
			if onProgress != nil {
				onProgress(step)
			}
		}

		if result.RunID == "" {
			var event agentWireEvent
			if json.Unmarshal(raw, &event) == nil && event.RunID != "" {
				result.RunID = event.RunID
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("agent stream interrupted: %w", err)
	}

	return result, nil
}

// ParseResponse turns one wire frame into trajectory steps. A frame
// may carry a single event or an array of events.
func (c *StreamingHTTPConnector) ParseResponse(raw []byte) ([]domain.TrajectoryStep, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var events []agentWireEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("failed to parse agent frame: %w", err)
		}
	} else {
		var event agentWireEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, fmt.Errorf("failed to parse agent frame: %w", err)
		}
		events = append(events, event)
	}

	var steps []domain.TrajectoryStep
	for _, event := range events {
		stepType, ok := wireStepType(event.Type)
		if !ok {
			// Vendor bookkeeping frames (pings, usage) carry no step.
			continue
		}
		step := domain.NewTrajectoryStep(stepType, event.Content)
		step.ToolName = event.ToolName
		step.ToolArgs = event.ToolArgs
		step.Status = event.Status
		steps = append(steps, step)
	}
	return steps, nil
}

// HealthCheck probes the agent endpoint.
func (c *StreamingHTTPConnector) HealthCheck(ctx context.Context, endpoint Endpoint) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.URL, nil)
	if err != nil {
		return false
	}
	if endpoint.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+endpoint.AuthToken)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

func wireStepType(t string) (domain.StepType, bool) {
	switch domain.StepType(t) {
	case domain.StepTypeThinking, domain.StepTypeAction, domain.StepTypeToolResult, domain.StepTypeResponse:
		return domain.StepType(t), true
	default:
		return "", false
	}
}
