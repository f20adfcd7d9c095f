package stream

import (
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// EventType identifies the kind of a streamed run event
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventStep      EventType = "step"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventError     EventType = "error"
)

// StartedEvent is emitted once, immediately after the run record is
// created, before any test case executes.
type StartedEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"runId"`
	TestCases []string  `json:"testCases"`
}

// ProgressEvent is emitted when the orchestrator moves to a test case.
// It always precedes that test case's step events.
type ProgressEvent struct {
	Type            EventType `json:"type"`
	CurrentIndex    int       `json:"currentIndex"`
	Total           int       `json:"total"`
	CurrentTestCase string    `json:"currentTestCase"`
}

// StepEvent carries one trajectory step as the connector produces it.
type StepEvent struct {
	Type      EventType             `json:"type"`
	StepIndex int                   `json:"stepIndex"`
	Step      domain.TrajectoryStep `json:"step"`
}

// CompletedEvent terminates the stream for a run that finished all
// test cases.
type CompletedEvent struct {
	Type EventType   `json:"type"`
	Run  *domain.Run `json:"run"`
}

// CancelledEvent terminates the stream for a cooperatively cancelled
// run.
type CancelledEvent struct {
	Type EventType   `json:"type"`
	Run  *domain.Run `json:"run"`
}

// ErrorEvent terminates the stream after a run-level fatal failure.
// RunID is empty when the run could not be created at all.
type ErrorEvent struct {
	Type  EventType `json:"type"`
	Error string    `json:"error"`
	RunID string    `json:"runId,omitempty"`
}

func NewStartedEvent(runID string, testCaseIDs []string) StartedEvent {
	return StartedEvent{Type: EventStarted, RunID: runID, TestCases: testCaseIDs}
}

func NewProgressEvent(currentIndex, total int, currentTestCase string) ProgressEvent {
	return ProgressEvent{Type: EventProgress, CurrentIndex: currentIndex, Total: total, CurrentTestCase: currentTestCase}
}

func NewStepEvent(stepIndex int, step domain.TrajectoryStep) StepEvent {
	return StepEvent{Type: EventStep, StepIndex: stepIndex, Step: step}
}

func NewCompletedEvent(run *domain.Run) CompletedEvent {
	return CompletedEvent{Type: EventCompleted, Run: run}
}

func NewCancelledEvent(run *domain.Run) CancelledEvent {
	return CancelledEvent{Type: EventCancelled, Run: run}
}

func NewErrorEvent(err error, runID string) ErrorEvent {
	return ErrorEvent{Type: EventError, Error: err.Error(), RunID: runID}
}

// Envelope is the client-side decoding target: a superset of every
// event shape, discriminated by Type.
type Envelope struct {
	Type            EventType              `json:"type"`
	RunID           string                 `json:"runId,omitempty"`
	TestCases       []string               `json:"testCases,omitempty"`
	CurrentIndex    int                    `json:"currentIndex,omitempty"`
	Total           int                    `json:"total,omitempty"`
	CurrentTestCase string                 `json:"currentTestCase,omitempty"`
	StepIndex       int                    `json:"stepIndex,omitempty"`
	Step            *domain.TrajectoryStep `json:"step,omitempty"`
	Run             *domain.Run            `json:"run,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Emitter is where the orchestrator pushes events. The SSE handler
// backs it with a Writer; tests back it with a slice.
type Emitter interface {
	Emit(event interface{}) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event interface{}) error

func (f EmitterFunc) Emit(event interface{}) error {
	return f(event)
}
