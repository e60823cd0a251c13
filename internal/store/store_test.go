package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/parsing"
	"github.com/jonathan/resume-scanner/internal/types"
)

func testReport() *types.MatchReport {
	return &types.MatchReport{
		JobTitle:  "HW Test Automation Engineer",
		Company:   "Delart",
		Iteration: 2,
		Score:     74,
		ReportURL: "https://app.example.com/match-report/1",
		ScannedAt: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		HardSkills: types.SortSkills([]types.Skill{
			types.NewSkill("Go", types.SkillTypeHard, 2, 3),
			types.NewSkill("Docker", types.SkillTypeHard, 1, 0),
		}),
		SoftSkills: types.SortSkills(nil),
		Metrics: map[string][]types.MetricFinding{
			types.SectionSearchability: {
				types.NewMetricFinding("Contact Information", []types.Check{
					{Description: "You provided your email.", Details: []string{}, Status: types.CheckStatusPass},
				}),
			},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileSave(t *testing.T) {
	root := t.TempDir()
	writer := NewFile(root)
	report := testReport()

	path, err := writer.Save(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Delart_HW Test Automation Engineer", "match_report_2.json"), path)

	loaded, err := parsing.LoadMatchReport(path)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is renamed away")
}

func TestFileSaveOverwrites(t *testing.T) {
	writer := NewFile(t.TempDir())
	report := testReport()

	_, err := writer.Save(context.Background(), report)
	require.NoError(t, err)
	report.Score = 91
	path, err := writer.Save(context.Background(), report)
	require.NoError(t, err)

	loaded, err := parsing.LoadMatchReport(path)
	require.NoError(t, err)
	assert.Equal(t, 91, loaded.Score)
}

func TestFileSaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFile(t.TempDir()).Save(ctx, testReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme", "Acme"},
		{"  Acme Corp  ", "Acme Corp"},
		{"R&D / Platform", "R&D _ Platform"},
		{`C:\Jobs*?`, "C__Jobs__"},
		{"..", "unknown"},
		{"", "unknown"},
		{"line\nbreak", "line_break"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSegment(tt.in))
		})
	}
}

type stubWriter struct {
	name     string
	location string
	err      error
	delay    time.Duration
}

func (s stubWriter) Name() string { return s.name }

func (s stubWriter) Save(ctx context.Context, _ *types.MatchReport) (string, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return s.location, s.err
}

func TestMultiSave(t *testing.T) {
	boom := errors.New("disk full")
	multi := NewMulti(quietLogger(),
		stubWriter{name: "slow", location: "a", delay: 20 * time.Millisecond},
		stubWriter{name: "broken", err: boom},
		stubWriter{name: "fast", location: "c"},
	)

	results := multi.Save(context.Background(), testReport())
	require.Len(t, results, 3)
	assert.Equal(t, Saved{Writer: "slow", Location: "a"}, results[0])
	assert.Equal(t, "broken", results[1].Writer)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, Saved{Writer: "fast", Location: "c"}, results[2])
}

func TestMultiSaveWithFile(t *testing.T) {
	root := t.TempDir()
	results := NewMulti(quietLogger(), NewFile(root)).Save(context.Background(), testReport())
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.FileExists(t, results[0].Location)
}

func TestMultiSaveNoWriters(t *testing.T) {
	assert.Empty(t, NewMulti(nil).Save(context.Background(), testReport()))
}
