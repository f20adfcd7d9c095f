package judge

import (
	"context"
	"testing"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

func TestMockJudgeEvaluate(t *testing.T) {
	expected := Expectation{Outcomes: []string{"outcome one", "outcome two"}}

	t.Run("tools and conclusion pass", func(t *testing.T) {
		trajectory := []domain.TrajectoryStep{
			domain.NewTrajectoryStep(domain.StepTypeAction, "Calling tool search"),
			domain.NewTrajectoryStep(domain.StepTypeResponse, "the answer is 42"),
		}

		eval, err := NewMockJudge().Evaluate(context.Background(), trajectory, expected, "m")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.PassFailStatus != domain.StatusPassed {
			t.Errorf("status = %q, want passed", eval.PassFailStatus)
		}
		if eval.Accuracy != 100 {
			t.Errorf("accuracy = %d, want 100", eval.Accuracy)
		}
		if len(eval.ImprovementStrategies) != 0 {
			t.Errorf("unexpected improvement strategies: %v", eval.ImprovementStrategies)
		}
	})

	t.Run("conclusion only is partial", func(t *testing.T) {
		trajectory := []domain.TrajectoryStep{
			domain.NewTrajectoryStep(domain.StepTypeResponse, "done"),
		}

		eval, err := NewMockJudge().Evaluate(context.Background(), trajectory, expected, "m")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.Accuracy != 50 {
			t.Errorf("accuracy = %d, want 50", eval.Accuracy)
		}
		if eval.PassFailStatus != domain.StatusFailed {
			t.Errorf("status = %q, want failed", eval.PassFailStatus)
		}
		if len(eval.ImprovementStrategies) == 0 {
			t.Error("expected improvement strategies for partial trajectory")
		}
	})

	t.Run("empty response sentinel is not a conclusion", func(t *testing.T) {
		trajectory := []domain.TrajectoryStep{
			domain.NewTrajectoryStep(domain.StepTypeResponse, "(empty response)"),
		}

		eval, err := NewMockJudge().Evaluate(context.Background(), trajectory, expected, "m")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.Accuracy != 0 {
			t.Errorf("accuracy = %d, want 0", eval.Accuracy)
		}
	})

	t.Run("empty trajectory is a critical failure", func(t *testing.T) {
		eval, err := NewMockJudge().Evaluate(context.Background(), nil, expected, "m")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.PassFailStatus != domain.StatusFailed {
			t.Errorf("status = %q, want failed", eval.PassFailStatus)
		}
	})
}
