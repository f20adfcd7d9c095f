package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

// MockJudge implements the judge contract without any network call,
// scoring from structural trajectory signals. Used for demo and
// offline evaluation.
type MockJudge struct{}

var _ Judge = (*MockJudge)(nil)

// NewMockJudge creates a deterministic mock judge
func NewMockJudge() *MockJudge {
	return &MockJudge{}
}

func (j *MockJudge) Name() string { return ProviderMock }

// Evaluate scores each expected outcome from two signals: whether the
// agent used tools and whether it produced a conclusion.
func (j *MockJudge) Evaluate(ctx context.Context, trajectory []domain.TrajectoryStep, expected Expectation, modelID string) (*Evaluation, error) {
	start := time.Now()

	outcomes := expected.Outcomes
	if len(outcomes) == 0 {
		outcomes = outcomesFromTrajectory(expected.Trajectory)
	}
	if len(outcomes) == 0 {
		return &Evaluation{
			PassFailStatus: domain.StatusFailed,
			Accuracy:       0,
			Reasoning:      "no expected outcomes to evaluate against",
			Duration:       time.Since(start),
		}, nil
	}

	usedTools := false
	hasConclusion := false
	for _, step := range trajectory {
		if step.Type == domain.StepTypeAction {
			usedTools = true
		}
		if step.Type == domain.StepTypeResponse && strings.TrimSpace(step.Content) != "" && step.Content != "(empty response)" {
			hasConclusion = true
		}
	}

	score := "none"
	switch {
	case usedTools && hasConclusion:
		score = "full"
	case usedTools || hasConclusion:
		score = "partial"
	}

	verdict := &judgeVerdict{
		Reasoning: fmt.Sprintf(
			"mock evaluation: tool usage=%t, conclusion present=%t, %d steps",
			usedTools, hasConclusion, len(trajectory)),
	}
	for _, outcome := range outcomes {
		verdict.Outcomes = append(verdict.Outcomes, struct {
			Outcome string `json:"outcome"`
			Score   string `json:"score"`
		}{Outcome: outcome, Score: score})
	}
	if len(trajectory) == 0 {
		verdict.CriticalFailures = []string{"missing critical step"}
	}
	if score != "full" {
		verdict.ImprovementStrategies = []domain.ImprovementStrategy{{
			Category:       "trajectory structure",
			Issue:          "the trajectory is missing tool usage or a final conclusion",
			Recommendation: "ensure the agent calls its tools and ends with a response step",
			Priority:       domain.PriorityMedium,
		}}
	}

	return scoreVerdict(verdict, len(outcomes), time.Since(start)), nil
}
