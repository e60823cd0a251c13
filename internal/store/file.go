package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mazen160/go-random"

	"github.com/jonathan/resume-scanner/internal/types"
)

// File writes reports as JSON under
// <root>/<company>_<job title>/match_report_<iteration>.json.
type File struct {
	root string
}

// NewFile returns a writer rooted at root.
func NewFile(root string) *File {
	return &File{root: root}
}

func (f *File) Name() string {
	return "file"
}

// Path is where report would be written.
func (f *File) Path(report *types.MatchReport) string {
	dir := sanitizeSegment(report.Company) + "_" + sanitizeSegment(report.JobTitle)
	return filepath.Join(f.root, dir, fmt.Sprintf("match_report_%d.json", report.Iteration))
}

// Save writes through a temporary file so a reader never sees a partial report.
func (f *File) Save(ctx context.Context, report *types.MatchReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := f.Path(report)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal match report: %w", err)
	}

	suffix, err := random.String(8)
	if err != nil {
		return "", fmt.Errorf("failed to name temporary file: %w", err)
	}
	tmp := path + "." + suffix + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write match report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move match report into place: %w", err)
	}
	return path, nil
}

// sanitizeSegment makes s safe as one path segment. Characters that are
// reserved on common filesystems become underscores.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, ". ")
	if s == "" {
		return "unknown"
	}
	return s
}
