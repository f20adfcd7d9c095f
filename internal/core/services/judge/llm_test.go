package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

type stubBackend struct {
	content string
	err     error
}

func (s *stubBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	return s.content, s.err
}

func steps(types ...domain.StepType) []domain.TrajectoryStep {
	var out []domain.TrajectoryStep
	for _, t := range types {
		out = append(out, domain.NewTrajectoryStep(t, "content"))
	}
	return out
}

func TestScoreVerdictAccuracy(t *testing.T) {
	tests := []struct {
		name         string
		scores       []string
		outcomeCount int
		wantAccuracy int
		wantStatus   domain.PassFailStatus
	}{
		{"all full", []string{"full", "full", "full"}, 3, 100, domain.StatusPassed},
		{"two of three", []string{"full", "full", "none"}, 3, 67, domain.StatusFailed},
		{"partial credit", []string{"full", "partial"}, 2, 75, domain.StatusPassed},
		{"at threshold", []string{"full", "full", "full", "partial", "none"}, 5, 70, domain.StatusPassed},
		{"all none", []string{"none", "none"}, 2, 0, domain.StatusFailed},
		{"missing outcomes count as none", []string{"full"}, 2, 50, domain.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := &judgeVerdict{}
			for _, score := range tt.scores {
				verdict.Outcomes = append(verdict.Outcomes, struct {
					Outcome string `json:"outcome"`
					Score   string `json:"score"`
				}{Outcome: "o", Score: score})
			}

			eval := scoreVerdict(verdict, tt.outcomeCount, time.Millisecond)
			if eval.Accuracy != tt.wantAccuracy {
				t.Errorf("accuracy = %d, want %d", eval.Accuracy, tt.wantAccuracy)
			}
			if eval.PassFailStatus != tt.wantStatus {
				t.Errorf("status = %q, want %q", eval.PassFailStatus, tt.wantStatus)
			}
		})
	}
}

func TestScoreVerdictCriticalFailureBlocksPass(t *testing.T) {
	verdict := &judgeVerdict{
		CriticalFailures: []string{"wrong conclusion"},
	}
	verdict.Outcomes = append(verdict.Outcomes, struct {
		Outcome string `json:"outcome"`
		Score   string `json:"score"`
	}{Outcome: "o", Score: "full"})

	eval := scoreVerdict(verdict, 1, time.Millisecond)
	if eval.Accuracy != 100 {
		t.Errorf("accuracy = %d, want 100", eval.Accuracy)
	}
	if eval.PassFailStatus != domain.StatusFailed {
		t.Errorf("status = %q, want failed despite full accuracy", eval.PassFailStatus)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"bare object", `{"reasoning":"ok"}`, `{"reasoning":"ok"}`, true},
		{"fenced", "here:\n```json\n{\"reasoning\":\"ok\"}\n```\ndone", `{"reasoning":"ok"}`, true},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"surrounded by prose", `Sure! {"a":1} Hope that helps.`, `{"a":1}`, true},
		{"no object", "I cannot evaluate this.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.content)
			if ok != tt.ok {
				t.Fatalf("ok = %t, want %t", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("extracted = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLLMJudgeEvaluate(t *testing.T) {
	trajectory := steps(domain.StepTypeThinking, domain.StepTypeAction, domain.StepTypeResponse)
	expected := Expectation{Outcomes: []string{"finds the root cause", "proposes a fix"}}

	t.Run("parses verdict", func(t *testing.T) {
		backend := &stubBackend{content: `{
			"outcomes": [
				{"outcome": "finds the root cause", "score": "full"},
				{"outcome": "proposes a fix", "score": "full"}
			],
			"criticalFailures": [],
			"reasoning": "both outcomes achieved"
		}`}
		j := NewLLMJudge(ProviderOpenAI, backend, "gpt-4o-mini", nil)

		eval, err := j.Evaluate(context.Background(), trajectory, expected, "agent-model")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.PassFailStatus != domain.StatusPassed {
			t.Errorf("status = %q, want passed", eval.PassFailStatus)
		}
		if eval.Accuracy != 100 {
			t.Errorf("accuracy = %d, want 100", eval.Accuracy)
		}
		if eval.Reasoning != "both outcomes achieved" {
			t.Errorf("reasoning = %q", eval.Reasoning)
		}
	})

	t.Run("malformed verdict degrades to failed evaluation", func(t *testing.T) {
		backend := &stubBackend{content: "I am unable to produce JSON today."}
		j := NewLLMJudge(ProviderOpenAI, backend, "gpt-4o-mini", nil)

		eval, err := j.Evaluate(context.Background(), trajectory, expected, "agent-model")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.PassFailStatus != domain.StatusFailed {
			t.Errorf("status = %q, want failed", eval.PassFailStatus)
		}
		if eval.Accuracy != 0 {
			t.Errorf("accuracy = %d, want 0", eval.Accuracy)
		}
	})

	t.Run("backend error propagates", func(t *testing.T) {
		backend := &stubBackend{err: errors.New("connection refused")}
		j := NewLLMJudge(ProviderOpenAI, backend, "gpt-4o-mini", nil)

		if _, err := j.Evaluate(context.Background(), trajectory, expected, "agent-model"); err == nil {
			t.Fatal("expected error from failing backend")
		}
	})

	t.Run("no outcomes fails without calling backend", func(t *testing.T) {
		backend := &stubBackend{err: errors.New("must not be called")}
		j := NewLLMJudge(ProviderOpenAI, backend, "gpt-4o-mini", nil)

		eval, err := j.Evaluate(context.Background(), trajectory, Expectation{}, "agent-model")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.PassFailStatus != domain.StatusFailed {
			t.Errorf("status = %q, want failed", eval.PassFailStatus)
		}
	})

	t.Run("expected trajectory derives outcomes", func(t *testing.T) {
		backend := &stubBackend{content: `{"outcomes":[{"outcome":"o","score":"full"}],"reasoning":"ok"}`}
		j := NewLLMJudge(ProviderOpenAI, backend, "gpt-4o-mini", nil)

		exp := Expectation{Trajectory: steps(domain.StepTypeResponse)}
		eval, err := j.Evaluate(context.Background(), trajectory, exp, "agent-model")
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if eval.Accuracy != 100 {
			t.Errorf("accuracy = %d, want 100", eval.Accuracy)
		}
	})
}
