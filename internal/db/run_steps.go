package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StartRunStep records that a step began. Starting a step again resets it.
func (db *DB) StartRunStep(ctx context.Context, runID uuid.UUID, stepName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, status, started_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = EXCLUDED.status, started_at = NOW(), completed_at = NULL,
		     duration_ms = NULL, error_message = NULL, updated_at = NOW()`,
		runID, stepName, StepStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to start run step %s: %w", stepName, err)
	}
	return nil
}

// FinishRunStep closes a step. A non-nil stepErr marks it failed and keeps the message.
func (db *DB) FinishRunStep(ctx context.Context, runID uuid.UUID, stepName string, stepErr error) error {
	current, err := db.GetRunStep(ctx, runID, stepName)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("step not found: %s", stepName)
	}

	now := time.Now()
	var durationMs *int
	if current.StartedAt != nil {
		dur := int(now.Sub(*current.StartedAt).Milliseconds())
		durationMs = &dur
	}
	status := StepStatusCompleted
	var errorMsg *string
	if stepErr != nil {
		status = StepStatusFailed
		msg := stepErr.Error()
		errorMsg = &msg
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $1, completed_at = $2, duration_ms = $3, error_message = $4, updated_at = NOW()
		 WHERE run_id = $5 AND step = $6`,
		status, now, durationMs, errorMsg, runID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run step %s: %w", stepName, err)
	}
	return nil
}

// GetRunStep retrieves a run step by run_id and step name
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	var step RunStep
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, step, status, started_at, completed_at,
		        duration_ms, error_message, created_at, updated_at
		 FROM run_steps
		 WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	).Scan(&step.ID, &step.RunID, &step.Step, &step.Status, &step.StartedAt, &step.CompletedAt,
		&step.DurationMs, &step.ErrorMessage, &step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return &step, nil
}

// ListRunSteps retrieves all steps for a run, optionally filtered by status
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID, status *string) ([]RunStep, error) {
	query := `SELECT id, run_id, step, status, started_at, completed_at,
	                 duration_ms, error_message, created_at, updated_at
	          FROM run_steps
	          WHERE run_id = $1`
	args := []any{runID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var step RunStep
		if err := rows.Scan(&step.ID, &step.RunID, &step.Step, &step.Status, &step.StartedAt, &step.CompletedAt,
			&step.DurationMs, &step.ErrorMessage, &step.CreatedAt, &step.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
