package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/parsing"
	"github.com/jonathan/resume-scanner/internal/types"
	"github.com/jonathan/resume-scanner/internal/workflow"
)

// ScanRequest is the body of POST /scans. The job is given either inline or
// as a path readable by the server.
type ScanRequest struct {
	Job           json.RawMessage `json:"job,omitempty"`
	JobPath       string          `json:"job_path,omitempty"`
	Resume        string          `json:"resume"`
	RescanWith    []string        `json:"rescan_with,omitempty"`
	MaxIterations int             `json:"max_iterations,omitempty"`
	TargetScore   int             `json:"target_score,omitempty"`
}

// Scan is a validated request.
type Scan struct {
	Job           types.JobTarget
	Resume        string
	RescanWith    []string
	MaxIterations int
	TargetScore   int
}

// Scanner runs one scan workflow and reports progress through onProgress.
type Scanner interface {
	Scan(ctx context.Context, scan Scan, onProgress workflow.ProgressCallback) (*workflow.Result, error)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(ctx context.Context, scan Scan, onProgress workflow.ProgressCallback) (*workflow.Result, error)

func (f ScannerFunc) Scan(ctx context.Context, scan Scan, onProgress workflow.ProgressCallback) (*workflow.Result, error) {
	return f(ctx, scan, onProgress)
}

// Validate resolves the job and checks that every document exists.
func (req ScanRequest) Validate() (Scan, error) {
	var scan Scan
	switch {
	case len(req.Job) > 0 && req.JobPath != "":
		return scan, &ErrValidation{Field: "job", Message: "give either job or job_path, not both"}
	case len(req.Job) > 0:
		job, err := parsing.ParseJobTarget(req.Job)
		if err != nil {
			return scan, err
		}
		scan.Job = *job
	case req.JobPath != "":
		job, err := parsing.LoadJobTarget(req.JobPath)
		if err != nil {
			return scan, err
		}
		scan.Job = *job
	default:
		return scan, &ErrValidation{Field: "job", Message: "either job or job_path is required"}
	}

	if req.Resume == "" {
		return scan, &ErrValidation{Field: "resume", Message: "is required"}
	}
	for _, doc := range append([]string{req.Resume}, req.RescanWith...) {
		if _, err := os.Stat(doc); err != nil {
			return scan, &ErrValidation{Field: "resume", Message: fmt.Sprintf("document not found: %s", doc)}
		}
	}
	if req.TargetScore < 0 || req.TargetScore > 100 {
		return scan, &ErrValidation{Field: "target_score", Message: "must be between 0 and 100"}
	}
	if req.MaxIterations < 0 {
		return scan, &ErrValidation{Field: "max_iterations", Message: "must not be negative"}
	}

	scan.Resume = req.Resume
	scan.RescanWith = req.RescanWith
	scan.MaxIterations = req.MaxIterations
	if scan.MaxIterations == 0 {
		scan.MaxIterations = len(req.RescanWith) + 1
	}
	scan.TargetScore = req.TargetScore
	return scan, nil
}

// handleScan runs a scan and streams its progress as SSE. Only one scan runs
// at a time; a second request gets 409 before the stream starts.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	scan, err := req.Validate()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	select {
	case s.scanSlot <- struct{}{}:
		defer func() { <-s.scanSlot }()
	default:
		s.errorResponse(w, ErrScanInProgress)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.logger.Info("starting streamed scan", "company", scan.Job.Company, "title", scan.Job.Title, "resume", scan.Resume)

	var runID string
	result, err := s.scanner.Scan(r.Context(), scan, func(event workflow.ProgressEvent) {
		if event.RunID != "" {
			runID = event.RunID
		}
		name := EventProgress
		if _, ok := event.Content.(*types.MatchReport); ok {
			name = EventReport
		}
		if werr := sse.WriteEvent(name, event); werr != nil {
			s.logger.Warn("failed to write SSE event", "event", name, "error", werr)
		}
	})
	if err != nil {
		s.logger.Error("streamed scan failed", "run_id", runID, "error", err)
		_ = sse.WriteError(runID, err.Error())
		return
	}

	done := Completion{
		RunID:      runID,
		Status:     db.RunStatusCompleted,
		StopReason: string(result.StopReason),
		Scans:      len(result.Reports),
	}
	if final := result.Final(); final != nil {
		done.FinalScore = &final.Score
	}
	_ = sse.WriteComplete(done)
	s.logger.Info("streamed scan completed", "run_id", runID, "scans", done.Scans, "stop_reason", done.StopReason)
}
