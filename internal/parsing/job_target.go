// Package parsing reads the JSON documents the scanner consumes: job targets and
// previously persisted match reports.
package parsing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-scanner/internal/schemas"
	"github.com/jonathan/resume-scanner/internal/types"
)

// ParseJobTarget decodes and validates job-target JSON. Paragraphs are trimmed
// and blank ones dropped before the struct rules run.
func ParseJobTarget(data []byte) (*types.JobTarget, error) {
	if !json.Valid(data) {
		return nil, &ParseError{Message: "job target is not valid JSON"}
	}
	if err := schemas.ValidateJobTarget(data); err != nil {
		return nil, &ValidationError{Message: "job target does not match schema", Cause: err}
	}

	var job types.JobTarget
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, &ParseError{Message: "failed to decode job target", Cause: err}
	}
	job.URL = strings.TrimSpace(job.URL)
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	job.DescriptionDetails = cleanParagraphs(job.DescriptionDetails)

	if err := job.Validate(); err != nil {
		return nil, structError("job target", err)
	}
	return &job, nil
}

// LoadJobTarget reads and parses a job-target file.
func LoadJobTarget(path string) (*types.JobTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "failed to read job target", Cause: err}
	}
	job, err := ParseJobTarget(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return job, nil
}

// ParseMatchReport decodes a persisted report. The document is checked against
// the report schema and the struct rules.
func ParseMatchReport(data []byte) (*types.MatchReport, error) {
	if !json.Valid(data) {
		return nil, &ParseError{Message: "match report is not valid JSON"}
	}
	if err := schemas.ValidateMatchReport(data); err != nil {
		return nil, &ValidationError{Message: "match report does not match schema", Cause: err}
	}

	var report types.MatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &ParseError{Message: "failed to decode match report", Cause: err}
	}
	if err := report.Validate(); err != nil {
		return nil, structError("match report", err)
	}
	return &report, nil
}

// LoadMatchReport reads and parses a persisted report file.
func LoadMatchReport(path string) (*types.MatchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "failed to read match report", Cause: err}
	}
	report, err := ParseMatchReport(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return report, nil
}

func cleanParagraphs(paragraphs []string) []string {
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// structError reports the first failing field of a validator error.
func structError(what string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s failed %q", what, fe.Tag()),
			Cause:   err,
		}
	}
	return &ValidationError{Message: what + " is invalid", Cause: err}
}
