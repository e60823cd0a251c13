// Package ingestion builds job targets from posting URLs and plain-text files.
package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/resume-scanner/internal/types"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	bulletPrefix  = regexp.MustCompile(`^([-*•·]|\d+[.)])\s+`)
	headingPrefix = regexp.MustCompile(`^#+\s*`)
)

// CleanText normalizes line endings and spacing. Lines keep their order; runs
// of blank lines shrink to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// Paragraphs splits cleaned text into description paragraphs. Blank lines end
// a paragraph; every bullet or heading line stands on its own with its marker
// stripped; wrapped prose lines are joined.
func Paragraphs(text string) []string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range strings.Split(CleanText(text), "\n") {
		switch {
		case line == "":
			flush()
		case bulletPrefix.MatchString(line):
			flush()
			out = append(out, bulletPrefix.ReplaceAllString(line, ""))
		case headingPrefix.MatchString(line):
			flush()
			if heading := headingPrefix.ReplaceAllString(line, ""); heading != "" {
				out = append(out, heading)
			}
		default:
			current = append(current, line)
		}
	}
	flush()
	return out
}

// Details are the caller-supplied fields a posting's text does not carry reliably.
type Details struct {
	URL     string
	Title   string
	Company string
}

// FromText builds a job target from posting text.
func FromText(text string, details Details) (*types.JobTarget, error) {
	job := &types.JobTarget{
		URL:                strings.TrimSpace(details.URL),
		Title:              strings.TrimSpace(details.Title),
		Company:            strings.TrimSpace(details.Company),
		DescriptionDetails: Paragraphs(text),
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("job target is incomplete: %w", err)
	}
	return job, nil
}

// FromFile reads a text file and builds a job target from it.
func FromFile(path string, details Details) (*types.JobTarget, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	cleaned := CleanText(string(content))
	job, err := FromText(cleaned, details)
	if err != nil {
		return nil, nil, err
	}
	return job, NewMetadata(cleaned, path), nil
}

// WriteOutput writes job_target.json and job_target.meta.json into outDir and
// returns the job target's path.
func WriteOutput(outDir string, job *types.JobTarget, metadata *Metadata) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	jobPath := filepath.Join(outDir, "job_target.json")
	if err := writeJSON(jobPath, job); err != nil {
		return "", err
	}
	if metadata != nil {
		if err := writeJSON(filepath.Join(outDir, "job_target.meta.json"), metadata); err != nil {
			return "", err
		}
	}
	return jobPath, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
