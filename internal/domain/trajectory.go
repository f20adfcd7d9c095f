package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepType represents the kind of a trajectory step
type StepType string

const (
	StepTypeThinking   StepType = "thinking"
	StepTypeAction     StepType = "action"
	StepTypeToolResult StepType = "tool_result"
	StepTypeResponse   StepType = "response"
)

// TrajectoryStep is one entry in the ordered, append-only sequence an
// agent produces during a single connector execution.
type TrajectoryStep struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      StepType               `json:"type"`
	Content   string                 `json:"content"`
	ToolName  string                 `json:"toolName,omitempty"`
	ToolArgs  map[string]interface{} `json:"toolArgs,omitempty"`
	// RawToolArgs keeps the verbatim argument string when the wire
	// payload was not valid JSON.
	RawToolArgs string `json:"rawToolArgs,omitempty"`
	Status      string `json:"status,omitempty"`
}

// NewTrajectoryStep creates a new trajectory step
func NewTrajectoryStep(stepType StepType, content string) TrajectoryStep {
	return TrajectoryStep{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      stepType,
		Content:   content,
	}
}
