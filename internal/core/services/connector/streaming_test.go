package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

func TestStreamingParseResponse(t *testing.T) {
	c := NewStreamingHTTPConnector(nil, nil)

	t.Run("single event", func(t *testing.T) {
		steps, err := c.ParseResponse([]byte(`{"type":"thinking","content":"checking logs"}`))
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if len(steps) != 1 || steps[0].Type != domain.StepTypeThinking {
			t.Errorf("steps = %+v", steps)
		}
	})

	t.Run("event array", func(t *testing.T) {
		body := `[
			{"type":"action","content":"Calling tool get_logs","toolName":"get_logs","toolArgs":{"service":"api"}},
			{"type":"tool_result","content":"200 lines","status":"ok"}
		]`
		steps, err := c.ParseResponse([]byte(body))
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if len(steps) != 2 {
			t.Fatalf("steps = %d, want 2", len(steps))
		}
		if steps[0].ToolName != "get_logs" || steps[0].ToolArgs["service"] != "api" {
			t.Errorf("action step = %+v", steps[0])
		}
		if steps[1].Type != domain.StepTypeToolResult || steps[1].Status != "ok" {
			t.Errorf("tool result step = %+v", steps[1])
		}
	})

	t.Run("unknown event type carries no step", func(t *testing.T) {
		steps, err := c.ParseResponse([]byte(`{"type":"usage","content":"ignored"}`))
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if len(steps) != 0 {
			t.Errorf("steps = %+v, want none", steps)
		}
	})

	t.Run("malformed frame errors", func(t *testing.T) {
		if _, err := c.ParseResponse([]byte(`{broken`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestStreamingExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		frames := []string{
			`{"type":"started","runId":"vendor-run-9"}`,
			`{"type":"thinking","content":"looking at metrics"}`,
			`not json at all`,
			`{"type":"action","content":"Calling tool get_logs","toolName":"get_logs"}`,
			`{"type":"response","content":"root cause found"}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := NewStreamingHTTPConnector(srv.Client(), nil)
	testCase := &domain.TestCase{ID: "tc-1", InitialPrompt: "investigate"}

	var progressed int
	result, err := c.Execute(context.Background(), Endpoint{URL: srv.URL}, &Request{TestCase: testCase, Model: "m"},
		func(step domain.TrajectoryStep) { progressed++ }, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Trajectory) != 3 {
		t.Fatalf("trajectory = %d steps, want 3", len(result.Trajectory))
	}
	if progressed != 3 {
		t.Errorf("progress callbacks = %d, want 3", progressed)
	}
	if result.RunID != "vendor-run-9" {
		t.Errorf("RunID = %q, want vendor-reported id", result.RunID)
	}
	if len(result.RawEvents) != 5 {
		t.Errorf("raw events = %d, want every frame retained", len(result.RawEvents))
	}

	wantTypes := []domain.StepType{domain.StepTypeThinking, domain.StepTypeAction, domain.StepTypeResponse}
	for i, want := range wantTypes {
		if result.Trajectory[i].Type != want {
			t.Errorf("step %d type = %q, want %q", i, result.Trajectory[i].Type, want)
		}
	}
}

func TestStreamingExecuteRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewStreamingHTTPConnector(srv.Client(), nil)
	testCase := &domain.TestCase{ID: "tc-1", InitialPrompt: "investigate"}

	_, err := c.Execute(context.Background(), Endpoint{URL: srv.URL}, &Request{TestCase: testCase}, nil, nil)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestRegistryResolve(t *testing.T) {
	logger := nopLogger{}
	reg := NewRegistry(ProviderChatCompletion, logger)
	chat := NewChatCompletionConnector(nil, nil)
	streaming := NewStreamingHTTPConnector(nil, nil)
	reg.Register(chat)
	reg.Register(streaming)

	t.Run("by name", func(t *testing.T) {
		c, err := reg.Resolve(ProviderStreamingHTTP)
		if err != nil || c.Name() != ProviderStreamingHTTP {
			t.Fatalf("Resolve = %v, %v", c, err)
		}
	})

	t.Run("empty name uses default", func(t *testing.T) {
		c, err := reg.Resolve("")
		if err != nil || c.Name() != ProviderChatCompletion {
			t.Fatalf("Resolve = %v, %v", c, err)
		}
	})

	t.Run("unknown name falls back to default", func(t *testing.T) {
		c, err := reg.Resolve("no-such-provider")
		if err != nil || c.Name() != ProviderChatCompletion {
			t.Fatalf("Resolve = %v, %v", c, err)
		}
	})

	t.Run("empty registry errors", func(t *testing.T) {
		if _, err := NewRegistry("", logger).Resolve(""); err == nil {
			t.Fatal("expected error from empty registry")
		}
	})
}

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
