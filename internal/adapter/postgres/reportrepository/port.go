// package reportrepository contains the PostgreSQL implementation of
// the evaluation report repository
package reportrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/secondary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/domain"
)

var _ secondary.ReportRepository = (*ReportRepository)(nil)

// ReportRepository implements the ReportRepository interface with PostgreSQL
type ReportRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB, logger primary.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// SaveReport saves an evaluation report to PostgreSQL. Reports are
// immutable once written; the upsert only covers retried writes of the
// same report.
func (r *ReportRepository) SaveReport(ctx context.Context, report *domain.EvaluationReport) error {
	strategiesJSON, err := json.Marshal(report.ImprovementStrategies)
	if err != nil {
		r.logger.Error("Failed to marshal improvement strategies", "error", err)
		return fmt.Errorf("failed to marshal improvement strategies: %w", err)
	}

	trajectoryJSON, err := json.Marshal(report.Trajectory)
	if err != nil {
		r.logger.Error("Failed to marshal trajectory", "error", err)
		return fmt.Errorf("failed to marshal trajectory: %w", err)
	}

	query := `
		INSERT INTO evaluation_reports (
			id, test_case_id, run_id, pass_fail_status, accuracy,
			llm_judge_reasoning, improvement_strategies, trajectory, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			pass_fail_status = EXCLUDED.pass_fail_status,
			accuracy = EXCLUDED.accuracy,
			llm_judge_reasoning = EXCLUDED.llm_judge_reasoning,
			improvement_strategies = EXCLUDED.improvement_strategies,
			trajectory = EXCLUDED.trajectory,
			duration_ms = EXCLUDED.duration_ms
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		report.ID,
		report.TestCaseID,
		report.RunID,
		report.PassFailStatus,
		report.Metrics.Accuracy,
		report.LLMJudgeReasoning,
		strategiesJSON,
		trajectoryJSON,
		report.DurationMs,
		report.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to save report", "error", err)
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetReport retrieves an evaluation report from PostgreSQL by ID
func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (*domain.EvaluationReport, error) {
	query := `
		SELECT id, test_case_id, run_id, pass_fail_status, accuracy,
			   llm_judge_reasoning, improvement_strategies, trajectory, duration_ms, created_at
		FROM evaluation_reports
		WHERE id = $1
	`

	report, err := r.scanReport(r.db.QueryRowContext(ctx, query, reportID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get report", "error", err)
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// GetReportsByRun retrieves all reports written during a run, oldest
// first
func (r *ReportRepository) GetReportsByRun(ctx context.Context, runID string) ([]*domain.EvaluationReport, error) {
	query := `
		SELECT id, test_case_id, run_id, pass_fail_status, accuracy,
			   llm_judge_reasoning, improvement_strategies, trajectory, duration_ms, created_at
		FROM evaluation_reports
		WHERE run_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		r.logger.Error("Failed to get reports by run", "error", err)
		return nil, fmt.Errorf("failed to get reports by run: %w", err)
	}
	defer rows.Close()

	reports := make([]*domain.EvaluationReport, 0)
	for rows.Next() {
		report, err := r.scanReport(rows)
		if err != nil {
			r.logger.Error("Failed to scan report row", "error", err)
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating report rows", "error", err)
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return reports, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ReportRepository) scanReport(row rowScanner) (*domain.EvaluationReport, error) {
	var report domain.EvaluationReport
	var reasoning sql.NullString
	var strategiesJSON, trajectoryJSON []byte

	err := row.Scan(
		&report.ID,
		&report.TestCaseID,
		&report.RunID,
		&report.PassFailStatus,
		&report.Metrics.Accuracy,
		&reasoning,
		&strategiesJSON,
		&trajectoryJSON,
		&report.DurationMs,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reasoning.Valid {
		report.LLMJudgeReasoning = reasoning.String
	}
	if len(strategiesJSON) > 0 {
		if err := json.Unmarshal(strategiesJSON, &report.ImprovementStrategies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal improvement strategies: %w", err)
		}
	}
	if len(trajectoryJSON) > 0 {
		if err := json.Unmarshal(trajectoryJSON, &report.Trajectory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trajectory: %w", err)
		}
	}

	return &report, nil
}
