package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/parsing"
	"github.com/jonathan/resume-scanner/internal/types"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", "  \n\t \n", ""},
		{"collapses spaces", "Line    with \t multiple    spaces", "Line with multiple spaces"},
		{"normalizes line endings", "Line 1\r\nLine 2\rLine 3", "Line 1\nLine 2\nLine 3"},
		{"shrinks blank runs", "Line 1\n\n\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"keeps markers", "# Title\n- Item 1\n  * Item 2", "# Title\n- Item 1\n* Item 2"},
		{"special characters", "C++ & Go — 100% remote!", "C++ & Go — 100% remote!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
			assert.Equal(t, CleanText(tt.input), CleanText(CleanText(tt.input)), "idempotent")
		})
	}
}

func TestParagraphs(t *testing.T) {
	text := `## About the role
We build the payments
platform.

Requirements:
- 5+ years of Go
* Kubernetes in production
1. Strong communication

Nice to have: Rust.`

	assert.Equal(t, []string{
		"About the role",
		"We build the payments platform.",
		"Requirements:",
		"5+ years of Go",
		"Kubernetes in production",
		"Strong communication",
		"Nice to have: Rust.",
	}, Paragraphs(text))
	assert.Empty(t, Paragraphs("\n\n  \n"))
}

func TestFromText(t *testing.T) {
	job, err := FromText("Build services.", Details{Title: " Engineer ", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, &types.JobTarget{Title: "Engineer", Company: "Acme", DescriptionDetails: []string{"Build services."}}, job)

	_, err = FromText("Build services.", Details{Title: "Engineer"})
	assert.ErrorContains(t, err, "incomplete")

	_, err = FromText("   ", Details{Title: "Engineer", Company: "Acme"})
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posting.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior Go Engineer\r\n\r\n- Go\r\n- Docker\r\n"), 0644))

	job, meta, err := FromFile(path, Details{Title: "Senior Go Engineer", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Senior Go Engineer", "Go", "Docker"}, job.DescriptionDetails)
	assert.Equal(t, path, meta.Source)
	assert.NotEmpty(t, meta.Hash)

	_, _, err = FromFile(filepath.Join(dir, "missing.txt"), Details{Title: "x", Company: "y"})
	assert.ErrorContains(t, err, "file not found")
}

func TestFromFile_HashFollowsContent(t *testing.T) {
	dir := t.TempDir()
	details := Details{Title: "Engineer", Company: "Acme"}
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("Content A"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("Content B"), 0644))

	_, metaA, err := FromFile(first, details)
	require.NoError(t, err)
	_, metaB, err := FromFile(second, details)
	require.NoError(t, err)
	assert.NotEqual(t, metaA.Hash, metaB.Hash)
}

func TestWriteOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	job := &types.JobTarget{URL: "https://jobs.example.com/1", Title: "Engineer", Company: "Acme", DescriptionDetails: []string{"Build."}}

	path, err := WriteOutput(dir, job, NewMetadata("Build.", job.URL))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job_target.json"), path)
	assert.FileExists(t, filepath.Join(dir, "job_target.meta.json"))

	loaded, err := parsing.LoadJobTarget(path)
	require.NoError(t, err)
	assert.Equal(t, job, loaded)
}
