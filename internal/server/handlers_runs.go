package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/types"
)

// RunStore is the slice of *db.DB the history endpoints read.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
	ListRunSteps(ctx context.Context, runID uuid.UUID, status *string) ([]db.RunStep, error)
	ListMatchReports(ctx context.Context, runID uuid.UUID) ([]db.StoredReport, error)
	GetMatchReport(ctx context.Context, runID uuid.UUID, iteration int) (*types.MatchReport, error)
}

// ReportSummary is one stored report with its decoded content.
type ReportSummary struct {
	Iteration int             `json:"iteration"`
	Score     int             `json:"score"`
	ReportURL string          `json:"report_url"`
	ScannedAt time.Time       `json:"scanned_at"`
	Report    json.RawMessage `json:"report"`
}

const maxListLimit = 200

// requireStore writes 503 and returns false when no database is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.errorResponse(w, ErrNoDatabase)
		return false
	}
	return true
}

// existingRun parses the {id} path value and loads the run, writing the error
// response itself when either step fails.
func (s *Server) existingRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return nil, false
	}
	if run == nil {
		s.errorResponse(w, fmt.Errorf("%w: %s", db.ErrRunNotFound, runID))
		return nil, false
	}
	return run, true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxListLimit)})
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.existingRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid run ID"})
		return
	}
	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRunSteps lists a run's steps, optionally filtered by ?status=.
func (s *Server) handleListRunSteps(w http.ResponseWriter, r *http.Request) {
	run, ok := s.existingRun(w, r)
	if !ok {
		return
	}
	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		switch v {
		case db.StepStatusInProgress, db.StepStatusCompleted, db.StepStatusFailed:
			status = &v
		default:
			s.errorResponse(w, &ErrValidation{Field: "status", Message: "unknown step status " + strconv.Quote(v)})
			return
		}
	}
	steps, err := s.store.ListRunSteps(r.Context(), run.ID, status)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if steps == nil {
		steps = []db.RunStep{}
	}
	s.jsonResponse(w, http.StatusOK, steps)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	run, ok := s.existingRun(w, r)
	if !ok {
		return
	}
	stored, err := s.store.ListMatchReports(r.Context(), run.ID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	summaries := make([]ReportSummary, 0, len(stored))
	for _, sr := range stored {
		summaries = append(summaries, ReportSummary{
			Iteration: sr.Iteration,
			Score:     sr.Score,
			ReportURL: sr.ReportURL,
			ScannedAt: sr.ScannedAt,
			Report:    json.RawMessage(sr.Content),
		})
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.existingRun(w, r)
	if !ok {
		return
	}
	iteration, err := strconv.Atoi(r.PathValue("iteration"))
	if err != nil || iteration < 1 {
		s.errorResponse(w, &ErrValidation{Field: "iteration", Message: "must be a positive integer"})
		return
	}
	report, err := s.store.GetMatchReport(r.Context(), run.ID, iteration)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if report == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("no match report #%d for run %s", iteration, run.ID),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}
