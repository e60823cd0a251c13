// Package types provides type definitions for structured data used throughout the resume-scanner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// JobTarget represents the job posting a résumé is scanned against.
// It is loaded once per run and never mutated.
type JobTarget struct {
	URL                string   `json:"url" validate:"omitempty,url"`
	Title              string   `json:"title" validate:"required"`
	Company            string   `json:"company" validate:"required"`
	DescriptionDetails []string `json:"description_details" validate:"min=1"`
}

// String renders the text pasted into the job description field:
// title, company, then every description paragraph on its own line.
func (j JobTarget) String() string {
	var sb strings.Builder
	sb.WriteString(j.Title)
	sb.WriteString("\n")
	sb.WriteString(j.Company)
	sb.WriteString("\n")
	sb.WriteString(strings.Join(j.DescriptionDetails, "\n"))
	return sb.String()
}

// Validate validates the JobTarget using the validator.
func (j *JobTarget) Validate() error {
	validate := validator.New()
	return validate.Struct(j)
}
