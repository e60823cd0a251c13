// Package types provides type definitions for structured data used throughout the resume-scanner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCheckStatus is returned when a status indicator token is not pass, fail or warn.
var ErrUnknownCheckStatus = errors.New("unknown check status")

// CheckStatus is the outcome of a single check in a report finding
type CheckStatus string

const (
	// CheckStatusPass marks a satisfied check
	CheckStatusPass CheckStatus = "pass"
	// CheckStatusFail marks a failed check
	CheckStatusFail CheckStatus = "fail"
	// CheckStatusWarn marks a check the site flags as a warning
	CheckStatusWarn CheckStatus = "warn"
)

// ParseCheckStatus maps a status indicator class token to a CheckStatus.
// Unknown tokens are an error; the status is never guessed.
func ParseCheckStatus(token string) (CheckStatus, error) {
	switch CheckStatus(strings.TrimSpace(token)) {
	case CheckStatusPass:
		return CheckStatusPass, nil
	case CheckStatusFail:
		return CheckStatusFail, nil
	case CheckStatusWarn:
		return CheckStatusWarn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCheckStatus, token)
}

// IsIssue reports whether the status is fail or warn.
func (s CheckStatus) IsIssue() bool {
	return s == CheckStatusFail || s == CheckStatusWarn
}

// Check represents one pass/fail/warn assertion within a finding
type Check struct {
	Description string      `json:"description"`
	Details     []string    `json:"details"`
	Status      CheckStatus `json:"status"`
}

// MetricFinding represents a named group of checks within a report section
type MetricFinding struct {
	Title          string  `json:"title"`
	IsFullyApplied bool    `json:"is_fully_applied"`
	Checks         []Check `json:"checks"`
}

// NewMetricFinding builds a finding and computes IsFullyApplied.
// The first fail or warn clears the flag for good; a finding without checks is fully applied.
func NewMetricFinding(title string, checks []Check) MetricFinding {
	if checks == nil {
		checks = []Check{}
	}
	fullyApplied := true
	for _, check := range checks {
		if fullyApplied && check.Status.IsIssue() {
			fullyApplied = false
		}
	}
	return MetricFinding{
		Title:          title,
		IsFullyApplied: fullyApplied,
		Checks:         checks,
	}
}
