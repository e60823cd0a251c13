package db

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// StepStatus constants
const (
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
)

// Workflow step names
const (
	StepOpenSession = "open_session"
	StepDashboard   = "dashboard"
	StepScan        = "scan"
	StepExtract     = "extract"
	StepTailor      = "tailor"
	StepRescan      = "rescan"
	StepPersist     = "persist"
)

// StepName qualifies a per-iteration step, e.g. "extract_2". Iterations
// count from 1; a non-positive iteration leaves the name bare.
func StepName(step string, iteration int) string {
	if iteration < 1 {
		return step
	}
	return step + "_" + strconv.Itoa(iteration)
}

// RunStep represents a single step execution for a scan run
type RunStep struct {
	ID           uuid.UUID  `json:"id"`
	RunID        uuid.UUID  `json:"run_id"`
	Step         string     `json:"step"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   *int       `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
