package connector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// SubprocessInputMode selects how the payload reaches the process.
type SubprocessInputMode string

const (
	InputModeStdin SubprocessInputMode = "stdin"
	InputModeArg   SubprocessInputMode = "arg"
)

// SubprocessOutputFormat selects how stdout is parsed.
type SubprocessOutputFormat string

const (
	OutputFormatText      SubprocessOutputFormat = "text"
	OutputFormatJSON      SubprocessOutputFormat = "json"
	OutputFormatJSONLines SubprocessOutputFormat = "json-lines"
)

// SubprocessConfig describes how to spawn and talk to an agent
// process.
type SubprocessConfig struct {
	Command      string
	Args         []string
	InputMode    SubprocessInputMode
	OutputFormat SubprocessOutputFormat
	Timeout      time.Duration
}

// procOutcome is how one invocation resolved: either the timeout fired
// first or the process exited (possibly with an error).
type procOutcome struct {
	timedOut bool
	waitErr  error
}

// oneShot is a result cell that can be written at most once. Both the
// timeout path and the process-exit path attempt to write; only the
// first write wins and later attempts report false.
type oneShot struct {
	once sync.Once
	out  procOutcome
	done chan struct{}
}

func newOneShot() *oneShot {
	return &oneShot{done: make(chan struct{})}
}

func (o *oneShot) settle(out procOutcome) bool {
	won := false
	o.once.Do(func() {
		o.out = out
		close(o.done)
		won = true
	})
	return won
}

func (o *oneShot) wait() procOutcome {
	<-o.done
	return o.out
}

// SubprocessConnector drives agents packaged as local executables. A
// configurable timeout races the process lifecycle: if it fires first
// the process receives SIGTERM and the invocation fails with a timeout
// error; a late exit after settlement is ignored.
type SubprocessConnector struct {
	cfg    SubprocessConfig
	logger primary.Logger

	// terminate sends the stop signal; replaced in tests to observe
	// signalling.
	terminate func(p *os.Process) error
}

var _ Connector = (*SubprocessConnector)(nil)

// NewSubprocessConnector creates a subprocess connector
func NewSubprocessConnector(cfg SubprocessConfig, logger primary.Logger) *SubprocessConnector {
	if cfg.InputMode == "" {
		cfg.InputMode = InputModeStdin
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = OutputFormatText
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &SubprocessConnector{
		cfg:    cfg,
		logger: logger,
		terminate: func(p *os.Process) error {
			return p.Signal(syscall.SIGTERM)
		},
	}
}

func (c *SubprocessConnector) Name() string { return ProviderSubprocess }

func (c *SubprocessConnector) SupportsStreaming() bool {
	return c.cfg.OutputFormat == OutputFormatJSONLines
}

// BuildPayload constructs the JSON document delivered to the process.
func (c *SubprocessConnector) BuildPayload(req *Request) (interface{}, error) {
	if req == nil || req.TestCase == nil {
		return nil, fmt.Errorf("request has no test case")
	}
	return map[string]interface{}{
		"testCaseId": req.TestCase.ID,
		"prompt":     req.TestCase.InitialPrompt,
		"context":    req.TestCase.Context,
		"tools":      req.TestCase.Tools,
		"model":      req.Model,
	}, nil
}

// Execute spawns the agent process and collects its trajectory.
func (c *SubprocessConnector) Execute(ctx context.Context, endpoint Endpoint, req *Request, onProgress ProgressFunc, onRawEvent RawEventFunc) (*Result, error) {
	payload, err := c.BuildPayload(req)
	if err != nil {
		return nil, err
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	args := append([]string{}, c.cfg.Args...)
	if c.cfg.InputMode == InputModeArg {
		args = append(args, string(input))
	}

	cmd := exec.Command(c.cfg.Command, args...)
	if c.cfg.InputMode == InputModeStdin {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	result := &Result{Metadata: map[string]interface{}{
		"connector": c.Name(),
		"command":   c.cfg.Command,
	}}

	var stdout bytes.Buffer
	stdoutDone := make(chan struct{})

	var mu sync.Mutex
	var streamed []domain.TrajectoryStep

	if c.cfg.OutputFormat == OutputFormatJSONLines {
		pipe, pipeErr := cmd.StdoutPipe()
		if pipeErr != nil {
			return nil, fmt.Errorf("failed to open stdout pipe: %w", pipeErr)
		}
		go func() {
			defer close(stdoutDone)
			scanner := bufio.NewScanner(pipe)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				raw := json.RawMessage(line)
				mu.Lock()
				result.RawEvents = append(result.RawEvents, raw)
				mu.Unlock()
				if onRawEvent != nil {
					onRawEvent(raw)
				}

				steps, parseErr := c.parseWireEvents([]byte(line))
				if parseErr != nil {
					if c.logger != nil {
						c.logger.Debug("skipping unparseable agent line", "error", parseErr)
					}
					continue
				}
				mu.Lock()
				streamed = append(streamed, steps...)
				mu.Unlock()
				for _, step := range steps {
					if onProgress != nil {
						onProgress(step)
					}
				}
			}
		}()
	} else {
		cmd.Stdout = &stdout
		close(stdoutDone)
	}

	if err := cmd.Start(); err != nil {
		return nil, classifySpawnError(c.cfg.Command, err)
	}

	cell := newOneShot()

	go func() {
		<-stdoutDone
		cell.settle(procOutcome{waitErr: cmd.Wait()})
	}()

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			if cell.settle(procOutcome{timedOut: true}) {
				_ = c.terminate(cmd.Process)
			}
		case <-ctx.Done():
			if cell.settle(procOutcome{waitErr: ctx.Err()}) {
				_ = c.terminate(cmd.Process)
			}
		case <-cell.done:
		}
	}()

	out := cell.wait()
	if out.timedOut {
		return nil, fmt.Errorf("agent process timed out after %s", c.cfg.Timeout)
	}
	if out.waitErr != nil {
		if errors.Is(out.waitErr, context.Canceled) || errors.Is(out.waitErr, context.DeadlineExceeded) {
			return nil, out.waitErr
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("agent process failed: %w: %s", out.waitErr, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("agent process failed: %w", out.waitErr)
	}

	if c.cfg.OutputFormat == OutputFormatJSONLines {
		mu.Lock()
		result.Trajectory = streamed
		mu.Unlock()
		return result, nil
	}

	raw := stdout.Bytes()
	if onRawEvent != nil && len(bytes.TrimSpace(raw)) > 0 {
		onRawEvent(json.RawMessage(raw))
	}
	steps, err := c.ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if onProgress != nil {
			onProgress(step)
		}
	}
	result.Trajectory = steps
	if len(bytes.TrimSpace(raw)) > 0 {
		result.RawEvents = append(result.RawEvents, json.RawMessage(raw))
	}
	return result, nil
}

// ParseResponse interprets captured stdout according to the configured
// output format.
func (c *SubprocessConnector) ParseResponse(raw []byte) ([]domain.TrajectoryStep, error) {
	switch c.cfg.OutputFormat {
	case OutputFormatJSON:
		return c.parseWireEvents(raw)
	case OutputFormatJSONLines:
		var steps []domain.TrajectoryStep
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			parsed, err := c.parseWireEvents([]byte(line))
			if err != nil {
				continue
			}
			steps = append(steps, parsed...)
		}
		return steps, nil
	default:
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return []domain.TrajectoryStep{domain.NewTrajectoryStep(domain.StepTypeResponse, "(empty response)")}, nil
		}
		return []domain.TrajectoryStep{domain.NewTrajectoryStep(domain.StepTypeResponse, text)}, nil
	}
}

func (c *SubprocessConnector) parseWireEvents(raw []byte) ([]domain.TrajectoryStep, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var events []agentWireEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("failed to parse agent output: %w", err)
		}
	} else {
		var event agentWireEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, fmt.Errorf("failed to parse agent output: %w", err)
		}
		events = append(events, event)
	}

	var steps []domain.TrajectoryStep
	for _, event := range events {
		stepType, ok := wireStepType(event.Type)
		if !ok {
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

// HealthCheck reports whether the configured command resolves to an
// executable.
func (c *SubprocessConnector) HealthCheck(ctx context.Context, endpoint Endpoint) bool {
	_, err := exec.LookPath(c.cfg.Command)
	return err == nil
}

// classifySpawnError maps OS-level spawn failures to descriptive
// errors.
func classifySpawnError(command string, err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, os.ErrNotExist) ||
		strings.Contains(msg, "ENOENT") ||
		strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file"):
		return fmt.Errorf("agent command %q not found: %w", command, err)
	case errors.Is(err, os.ErrPermission) ||
		strings.Contains(msg, "EACCES") ||
		strings.Contains(msg, "EPERM") ||
		strings.Contains(msg, "permission denied"):
		return fmt.Errorf("agent command %q is not executable: %w", command, err)
	default:
		return fmt.Errorf("failed to start agent command %q: %w", command, err)
	}
}
