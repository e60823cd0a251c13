package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-scanner/internal/types"
)

// SaveMatchReport stores a report under a run. Saving the same iteration again
// replaces the earlier row.
func (db *DB) SaveMatchReport(ctx context.Context, runID uuid.UUID, report *types.MatchReport) (uuid.UUID, error) {
	content, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal match report: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO match_reports (run_id, iteration, score, report_url, content, scanned_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, iteration) DO UPDATE
		 SET score = EXCLUDED.score, report_url = EXCLUDED.report_url,
		     content = EXCLUDED.content, scanned_at = EXCLUDED.scanned_at, created_at = NOW()
		 RETURNING id`,
		runID, report.Iteration, report.Score, report.ReportURL, content, report.ScannedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save match report %d: %w", report.Iteration, err)
	}
	return id, nil
}

// GetMatchReport loads one iteration of a run. A missing report is (nil, nil).
func (db *DB) GetMatchReport(ctx context.Context, runID uuid.UUID, iteration int) (*types.MatchReport, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM match_reports WHERE run_id = $1 AND iteration = $2`,
		runID, iteration,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match report %d: %w", iteration, err)
	}
	return decodeReport(content)
}

// ListMatchReports returns every stored report row of a run in iteration order
func (db *DB) ListMatchReports(ctx context.Context, runID uuid.UUID) ([]StoredReport, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, iteration, score, report_url, content, scanned_at, created_at
		 FROM match_reports WHERE run_id = $1 ORDER BY iteration`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var r StoredReport
		if err := rows.Scan(&r.ID, &r.RunID, &r.Iteration, &r.Score, &r.ReportURL, &r.Content, &r.ScannedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Report decodes the stored content.
func (r StoredReport) Report() (*types.MatchReport, error) {
	return decodeReport(r.Content)
}

func decodeReport(content []byte) (*types.MatchReport, error) {
	var report types.MatchReport
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match report: %w", err)
	}
	return &report, nil
}

// ReportWriter persists reports under one run. It satisfies store.Writer.
type ReportWriter struct {
	db    *DB
	runID uuid.UUID
}

// NewReportWriter binds a writer to runID.
func NewReportWriter(db *DB, runID uuid.UUID) *ReportWriter {
	return &ReportWriter{db: db, runID: runID}
}

// Name identifies the sink in logs.
func (w *ReportWriter) Name() string {
	return "postgres"
}

// Save stores report and returns its row location.
func (w *ReportWriter) Save(ctx context.Context, report *types.MatchReport) (string, error) {
	id, err := w.db.SaveMatchReport(ctx, w.runID, report)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("match_reports/%s", id), nil
}
