package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunType(t *testing.T) {
	run := Run{
		Company:  "Acme",
		JobTitle: "Engineer",
		Status:   RunStatusRunning,
	}

	assert.Equal(t, "Acme", run.Company)
	assert.Equal(t, "Engineer", run.JobTitle)
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	names := make(map[string]bool)
	for _, m := range migrations {
		assert.False(t, names[m.Name], "duplicate migration %s", m.Name)
		names[m.Name] = true
		assert.Contains(t, m.SQL, "IF NOT EXISTS", m.Name)
	}
	assert.Len(t, names, 3)
}

func TestStoredReportDecodes(t *testing.T) {
	content := []byte(`{"job_title":"Engineer","company":"Acme","iteration":2,"score":77,
		"report_url":"https://app.example.com/match-report/9","scanned_at":"2026-10-16T09:30:00Z",
		"hard_skills":{"applied":[],"missing":[]},"soft_skills":{"applied":[],"missing":[]},"metrics":{}}`)
	stored := StoredReport{ID: uuid.New(), Iteration: 2, Content: content}

	report, err := stored.Report()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Iteration)
	assert.Equal(t, 77, report.Score)
	assert.Equal(t, time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC), report.ScannedAt)

	_, err = StoredReport{Content: []byte("{")}.Report()
	assert.Error(t, err)
}

func TestReportWriterName(t *testing.T) {
	w := NewReportWriter(nil, uuid.New())
	assert.Equal(t, "postgres", w.Name())
}
