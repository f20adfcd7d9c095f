package connector

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

func subprocessTestCase() *domain.TestCase {
	return &domain.TestCase{ID: "tc-1", InitialPrompt: "investigate"}
}

func TestSubprocessExecuteText(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "echo the root cause is a full disk"},
		OutputFormat: OutputFormatText,
		Timeout:      10 * time.Second,
	}, nil)

	result, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Trajectory) != 1 {
		t.Fatalf("trajectory = %d steps, want 1", len(result.Trajectory))
	}
	step := result.Trajectory[0]
	if step.Type != domain.StepTypeResponse || step.Content != "the root cause is a full disk" {
		t.Errorf("step = %+v", step)
	}
}

func TestSubprocessExecuteEmptyOutput(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "true"},
		OutputFormat: OutputFormatText,
		Timeout:      10 * time.Second,
	}, nil)

	result, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Trajectory) != 1 || result.Trajectory[0].Content != "(empty response)" {
		t.Errorf("trajectory = %+v, want sentinel response", result.Trajectory)
	}
}

func TestSubprocessExecuteJSONLines(t *testing.T) {
	script := `echo '{"type":"thinking","content":"checking"}'
echo 'garbage line'
echo '{"type":"response","content":"done"}'`

	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", script},
		OutputFormat: OutputFormatJSONLines,
		Timeout:      10 * time.Second,
	}, nil)

	var progressed int32
	result, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()},
		func(step domain.TrajectoryStep) { atomic.AddInt32(&progressed, 1) }, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Trajectory) != 2 {
		t.Fatalf("trajectory = %d steps, want unparseable line skipped", len(result.Trajectory))
	}
	if got := atomic.LoadInt32(&progressed); got != 2 {
		t.Errorf("progress callbacks = %d, want 2", got)
	}
	if result.Trajectory[0].Type != domain.StepTypeThinking || result.Trajectory[1].Type != domain.StepTypeResponse {
		t.Errorf("trajectory = %+v", result.Trajectory)
	}
}

func TestSubprocessStdinDelivery(t *testing.T) {
	// The process echoes its stdin back; the payload must round-trip.
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "cat"},
		InputMode:    InputModeStdin,
		OutputFormat: OutputFormatText,
		Timeout:      10 * time.Second,
	}, nil)

	result, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase(), Model: "m-1"}, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	content := result.Trajectory[0].Content
	if !strings.Contains(content, `"testCaseId":"tc-1"`) || !strings.Contains(content, `"model":"m-1"`) {
		t.Errorf("stdin payload = %q", content)
	}
}

func TestSubprocessTimeout(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "sleep 30"},
		OutputFormat: OutputFormatText,
		Timeout:      100 * time.Millisecond,
	}, nil)

	var signals int32
	c.terminate = func(p *os.Process) error {
		atomic.AddInt32(&signals, 1)
		return p.Signal(syscall.SIGTERM)
	}

	start := time.Now()
	_, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil)
	elapsed := time.Since(start)

	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout error", err)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("Execute blocked for %s after timeout", elapsed)
	}
	if got := atomic.LoadInt32(&signals); got != 1 {
		t.Errorf("SIGTERM sent %d times, want exactly once", got)
	}
}

func TestSubprocessFastExitBeatsTimeout(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "echo ok"},
		OutputFormat: OutputFormatText,
		Timeout:      10 * time.Second,
	}, nil)

	var signals int32
	c.terminate = func(p *os.Process) error {
		atomic.AddInt32(&signals, 1)
		return p.Signal(syscall.SIGTERM)
	}

	if _, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := atomic.LoadInt32(&signals); got != 0 {
		t.Errorf("SIGTERM sent %d times for a process that exited in time", got)
	}
}

func TestSubprocessNonZeroExitIncludesStderr(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command:      "sh",
		Args:         []string{"-c", "echo agent blew up >&2; exit 3"},
		OutputFormat: OutputFormatText,
		Timeout:      10 * time.Second,
	}, nil)

	_, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "agent blew up") {
		t.Errorf("err = %q, want stderr included", err)
	}
}

func TestSubprocessCommandNotFound(t *testing.T) {
	c := NewSubprocessConnector(SubprocessConfig{
		Command: "definitely-not-a-real-binary-xyz",
		Timeout: time.Second,
	}, nil)

	_, err := c.Execute(context.Background(), Endpoint{}, &Request{TestCase: subprocessTestCase()}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not-found classification", err)
	}
}

func TestClassifySpawnError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"enoent errno", errors.New("fork/exec /x: ENOENT"), "not found"},
		{"lookpath message", errors.New(`exec: "x": executable file not found in $PATH`), "not found"},
		{"os not exist", os.ErrNotExist, "not found"},
		{"eacces errno", errors.New("fork/exec /x: EACCES"), "not executable"},
		{"eperm errno", errors.New("fork/exec /x: EPERM"), "not executable"},
		{"permission denied", errors.New("fork/exec /x: permission denied"), "not executable"},
		{"other", errors.New("resource exhausted"), "failed to start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySpawnError("x", tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("classified = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestSubprocessHealthCheck(t *testing.T) {
	ok := NewSubprocessConnector(SubprocessConfig{Command: "sh", Timeout: time.Second}, nil)
	if !ok.HealthCheck(context.Background(), Endpoint{}) {
		t.Error("sh should resolve")
	}
	missing := NewSubprocessConnector(SubprocessConfig{Command: "definitely-not-a-real-binary-xyz", Timeout: time.Second}, nil)
	if missing.HealthCheck(context.Background(), Endpoint{}) {
		t.Error("missing command should fail the health check")
	}
}
