// Package db provides PostgreSQL persistence for scan runs and their match reports.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect establishes a connection pool to the database and makes sure the
// scanner's tables exist.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool, logger: slog.Default()}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// migration is one idempotent schema statement.
type migration struct {
	Name string
	SQL  string
}

var migrations = []migration{
	{
		Name: "create_scan_runs",
		SQL: `CREATE TABLE IF NOT EXISTS scan_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company TEXT NOT NULL,
			job_title TEXT NOT NULL,
			job_url TEXT NOT NULL DEFAULT '',
			document_path TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
	},
	{
		Name: "create_run_steps",
		SQL: `CREATE TABLE IF NOT EXISTS run_steps (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
			step TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			duration_ms INTEGER,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, step)
		)`,
	},
	{
		Name: "create_match_reports",
		SQL: `CREATE TABLE IF NOT EXISTS match_reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
			iteration INTEGER NOT NULL CHECK (iteration >= 1),
			score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
			report_url TEXT NOT NULL DEFAULT '',
			content JSONB NOT NULL,
			scanned_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, iteration)
		)`,
	},
}

// EnsureSchema creates the scanner's tables when they are missing. Every
// statement is idempotent, so it runs on each connect.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := db.pool.Exec(ctx, m.SQL); err != nil {
			db.logger.Error("migration failed", "name", m.Name, "error", err)
			return fmt.Errorf("failed to run migration %s: %w", m.Name, err)
		}
		db.logger.Debug("migration applied", "name", m.Name)
	}
	return nil
}

// CreateRun creates a new scan run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, input RunInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO scan_runs (company, job_title, job_url, document_path, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		input.Company, input.JobTitle, input.JobURL, input.DocumentPath, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a scan run as finished with status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE scan_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a scan run by ID. A missing run is (nil, nil).
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, company, job_title, job_url, document_path, status, created_at, completed_at
		 FROM scan_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Company, &run.JobTitle, &run.JobURL, &run.DocumentPath, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, company, job_title, job_url, document_path, status, created_at, completed_at
		 FROM scan_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Company, &run.JobTitle, &run.JobURL, &run.DocumentPath,
			&run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run together with its steps and reports
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM scan_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
