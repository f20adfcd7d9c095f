package domain

import (
	"time"

	"github.com/google/uuid"
)

// PassFailStatus represents the overall verdict of an evaluation
type PassFailStatus string

const (
	StatusPassed PassFailStatus = "passed"
	StatusFailed PassFailStatus = "failed"
)

// StrategyPriority represents how urgent an improvement strategy is
type StrategyPriority string

const (
	PriorityHigh   StrategyPriority = "high"
	PriorityMedium StrategyPriority = "medium"
	PriorityLow    StrategyPriority = "low"
)

// ImprovementStrategy is one concrete recommendation produced by the
// judge for a failed or partially correct trajectory.
type ImprovementStrategy struct {
	Category       string           `json:"category"`
	Issue          string           `json:"issue"`
	Recommendation string           `json:"recommendation"`
	Priority       StrategyPriority `json:"priority"`
}

// ReportMetrics holds the numeric scores of an evaluation. Accuracy is
// a percentage in [0,100].
type ReportMetrics struct {
	Accuracy int `json:"accuracy" db:"accuracy"`
}

// EvaluationReport is the scored outcome of running one test case
// within one run. Immutable once written.
type EvaluationReport struct {
	ID                    string                `json:"id" db:"id"`
	TestCaseID            string                `json:"testCaseId" db:"test_case_id"`
	RunID                 string                `json:"runId" db:"run_id"`
	PassFailStatus        PassFailStatus        `json:"passFailStatus" db:"pass_fail_status"`
	Metrics               ReportMetrics         `json:"metrics"`
	LLMJudgeReasoning     string                `json:"llmJudgeReasoning" db:"llm_judge_reasoning"`
	ImprovementStrategies []ImprovementStrategy `json:"improvementStrategies,omitempty"`
	Trajectory            []TrajectoryStep      `json:"trajectory,omitempty"`
	DurationMs            int64                 `json:"durationMs" db:"duration_ms"`
	CreatedAt             time.Time             `json:"createdAt" db:"created_at"`
}

// NewEvaluationReport creates a report for a (run, test case) pair
func NewEvaluationReport(runID, testCaseID string) *EvaluationReport {
	return &EvaluationReport{
		ID:         uuid.NewString(),
		TestCaseID: testCaseID,
		RunID:      runID,
		CreatedAt:  time.Now(),
	}
}

type ReportTable struct {
	ID                    string
	TestCaseID            string
	RunID                 string
	PassFailStatus        string
	Accuracy              string
	LLMJudgeReasoning     string
	ImprovementStrategies string
	Trajectory            string
	DurationMs            string
	CreatedAt             string
}

func GetReportTable() ReportTable {
	return ReportTable{
		ID:                    "id",
		TestCaseID:            "test_case_id",
		RunID:                 "run_id",
		PassFailStatus:        "pass_fail_status",
		Accuracy:              "accuracy",
		LLMJudgeReasoning:     "llm_judge_reasoning",
		ImprovementStrategies: "improvement_strategies",
		Trajectory:            "trajectory",
		DurationMs:            "duration_ms",
		CreatedAt:             "created_at",
	}
}

func (ReportTable) TableName() string {
	return "evaluation_reports"
}
