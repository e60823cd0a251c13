// Package server provides the local HTTP API for the resume scanner: scans
// streamed over SSE and read access to the run history.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/parsing"
)

// ErrScanInProgress is returned while another scan owns the browser.
var ErrScanInProgress = errors.New("a scan is already running")

// ErrNoDatabase is returned by history endpoints when no database is configured.
var ErrNoDatabase = errors.New("database not configured")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var invalidInput *parsing.ValidationError
	var malformed *parsing.ParseError
	switch {
	case errors.As(err, &validation), errors.As(err, &invalidInput), errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrNoDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
