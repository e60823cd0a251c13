package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/parsing"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "resume", Message: "is required"}
	assert.Equal(t, "validation error: resume - is required", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request validation", &ErrValidation{Field: "resume", Message: "is required"}, http.StatusBadRequest},
		{"job validation", fmt.Errorf("load: %w", &parsing.ValidationError{Message: "title is required"}), http.StatusBadRequest},
		{"job parse", &parsing.ParseError{Message: "bad json"}, http.StatusBadRequest},
		{"missing run", fmt.Errorf("%w: %s", db.ErrRunNotFound, uuid.New()), http.StatusNotFound},
		{"busy", ErrScanInProgress, http.StatusConflict},
		{"no database", ErrNoDatabase, http.StatusServiceUnavailable},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
