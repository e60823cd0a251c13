package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// SSE event names
const (
	EventProgress = "progress"
	EventReport   = "report"
	EventError    = "error"
	EventComplete = "complete"
)

// Completion is the payload of the final event of a scan stream.
type Completion struct {
	RunID      string `json:"run_id,omitempty"`
	Status     string `json:"status"`
	StopReason string `json:"stop_reason,omitempty"`
	Scans      int    `json:"scans"`
	FinalScore *int   `json:"final_score,omitempty"`
}

// SSEWriter writes Server-Sent Events. It is safe for concurrent use.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the stream headers. It fails when w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one named event with a JSON payload.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(runID, message string) error {
	return s.WriteEvent(EventError, map[string]string{"run_id": runID, "error": message})
}

// WriteComplete sends the completion event
func (s *SSEWriter) WriteComplete(c Completion) error {
	return s.WriteEvent(EventComplete, c)
}
