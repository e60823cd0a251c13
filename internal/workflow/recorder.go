package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jonathan/resume-scanner/internal/db"
)

// Recorder tracks a run's steps. Implementations must not fail the run:
// bookkeeping errors are logged and dropped.
type Recorder interface {
	RunID() string
	StartStep(ctx context.Context, step string)
	FinishStep(ctx context.Context, step string, stepErr error)
	Complete(ctx context.Context, status string)
}

type nopRecorder struct{}

func (nopRecorder) RunID() string                             { return "" }
func (nopRecorder) StartStep(context.Context, string)         {}
func (nopRecorder) FinishStep(context.Context, string, error) {}
func (nopRecorder) Complete(context.Context, string)          {}

// RunStore is the slice of *db.DB the recorder needs.
type RunStore interface {
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	StartRunStep(ctx context.Context, runID uuid.UUID, stepName string) error
	FinishRunStep(ctx context.Context, runID uuid.UUID, stepName string, stepErr error) error
}

// DBRecorder records steps as rows of one scan run.
type DBRecorder struct {
	store  RunStore
	runID  uuid.UUID
	logger *slog.Logger
}

// NewDBRecorder creates the run row and returns a recorder bound to it.
func NewDBRecorder(ctx context.Context, store RunStore, input db.RunInput, logger *slog.Logger) (*DBRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runID, err := store.CreateRun(ctx, input)
	if err != nil {
		return nil, err
	}
	logger.Debug("created scan run", "run_id", runID)
	return &DBRecorder{store: store, runID: runID, logger: logger}, nil
}

// ID is the run's primary key.
func (r *DBRecorder) ID() uuid.UUID {
	return r.runID
}

func (r *DBRecorder) RunID() string {
	return r.runID.String()
}

func (r *DBRecorder) StartStep(ctx context.Context, step string) {
	if err := r.store.StartRunStep(ctx, r.runID, step); err != nil {
		r.logger.Warn("failed to record step start", "step", step, "error", err)
	}
}

func (r *DBRecorder) FinishStep(ctx context.Context, step string, stepErr error) {
	if err := r.store.FinishRunStep(ctx, r.runID, step, stepErr); err != nil {
		r.logger.Warn("failed to record step result", "step", step, "error", err)
	}
}

func (r *DBRecorder) Complete(ctx context.Context, status string) {
	if err := r.store.CompleteRun(ctx, r.runID, status); err != nil {
		r.logger.Warn("failed to complete run", "status", status, "error", err)
	}
}
