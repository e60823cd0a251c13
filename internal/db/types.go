package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run ID matches no row.
var ErrRunNotFound = errors.New("run not found")

// Run represents one scan workflow invocation
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Company      string     `json:"company"`
	JobTitle     string     `json:"job_title"`
	JobURL       string     `json:"job_url"`
	DocumentPath string     `json:"document_path"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunInput is the data a run is created from
type RunInput struct {
	Company      string
	JobTitle     string
	JobURL       string
	DocumentPath string
}

// StoredReport is a persisted match report row. Content holds the report JSON.
type StoredReport struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Iteration int       `json:"iteration"`
	Score     int       `json:"score"`
	ReportURL string    `json:"report_url"`
	Content   []byte    `json:"content"`
	ScannedAt time.Time `json:"scanned_at"`
	CreatedAt time.Time `json:"created_at"`
}
