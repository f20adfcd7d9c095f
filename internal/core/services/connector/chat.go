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
)

// chatMessage is one entry of an OpenAI-style messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Function chatToolFunction `json:"function"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletionConnector drives agents behind a single-shot
// chat-completion surface: one blocking request, tool calls translated
// into action steps.
type ChatCompletionConnector struct {
	httpClient *http.Client
	logger     primary.Logger
}

var _ Connector = (*ChatCompletionConnector)(nil)

// NewChatCompletionConnector creates a chat-completion connector
func NewChatCompletionConnector(httpClient *http.Client, logger primary.Logger) *ChatCompletionConnector {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &ChatCompletionConnector{httpClient: httpClient, logger: logger}
}

func (c *ChatCompletionConnector) Name() string { return ProviderChatCompletion }

func (c *ChatCompletionConnector) SupportsStreaming() bool { return false }

// BuildPayload assembles the messages array from the test case's
// context entries followed by the initial prompt.
func (c *ChatCompletionConnector) BuildPayload(req *Request) (interface{}, error) {
	if req == nil || req.TestCase == nil {
		return nil, fmt.Errorf("request has no test case")
	}

	messages := make([]chatMessage, 0, len(req.TestCase.Context)+1)
	for _, entry := range req.TestCase.Context {
		role := entry.Role
		if role == "" {
			role = "system"
		}
		messages = append(messages, chatMessage{Role: role, Content: entry.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.TestCase.InitialPrompt})

	payload := map[string]interface{}{
		"model":    req.Model,
		"messages": messages,
	}
	if len(req.TestCase.Tools) > 0 {
		tools := make([]map[string]interface{}, 0, len(req.TestCase.Tools))
		for _, tool := range req.TestCase.Tools {
			tools = append(tools, map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        tool.Name,
					"description": tool.Description,
				},
			})
		}
		payload["tools"] = tools
	}
	return payload, nil
}

// Execute sends one blocking chat-completion request and parses the
// reply into a trajectory.
func (c *ChatCompletionConnector) Execute(ctx context.Context, endpoint Endpoint, req *Request, onProgress ProgressFunc, onRawEvent RawEventFunc) (*Result, error) {
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

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}
	raw := json.RawMessage(buf.Bytes())
	if onRawEvent != nil {
		onRawEvent(raw)
	}

	steps, err := c.ParseResponse(buf.Bytes())
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if onProgress != nil {
			onProgress(step)
		}
	}

	var parsed chatCompletionResponse
	_ = json.Unmarshal(buf.Bytes(), &parsed)

	return &Result{
		Trajectory: steps,
		RunID:      parsed.ID,
		Metadata: map[string]interface{}{
			"connector": c.Name(),
			"model":     req.Model,
		},
		RawEvents: []json.RawMessage{raw},
	}, nil
}

// ParseResponse translates a chat-completion body into trajectory
// steps. Malformed tool-call arguments are kept verbatim rather than
// failing the evaluation; an answer with neither text nor tool calls
// yields a single sentinel response step.
func (c *ChatCompletionConnector) ParseResponse(raw []byte) ([]domain.TrajectoryStep, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion has no choices")
	}

	message := resp.Choices[0].Message
	var steps []domain.TrajectoryStep

	for _, call := range message.ToolCalls {
		step := domain.NewTrajectoryStep(domain.StepTypeAction, fmt.Sprintf("Calling tool %s", call.Function.Name))
		step.ToolName = call.Function.Name

		var args map[string]interface{}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			// Malformed arguments must not abort evaluation.
			step.RawToolArgs = call.Function.Arguments
		} else {
			step.ToolArgs = args
		}
		steps = append(steps, step)
	}

	if message.Content != "" {
		steps = append(steps, domain.NewTrajectoryStep(domain.StepTypeResponse, message.Content))
	}

	if len(steps) == 0 {
		steps = append(steps, domain.NewTrajectoryStep(domain.StepTypeResponse, "(empty response)"))
	}
	return steps, nil
}

// HealthCheck probes the agent endpoint.
func (c *ChatCompletionConnector) HealthCheck(ctx context.Context, endpoint Endpoint) bool {
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
