package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-scanner/internal/types"
)

func writeReport(t *testing.T) string {
	t.Helper()
	report := types.MatchReport{
		JobTitle:  "Senior Go Engineer",
		Company:   "Acme",
		Iteration: 2,
		Score:     74,
		ReportURL: "https://app.example.com/match-report/1002",
		ScannedAt: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		HardSkills: types.SortSkills([]types.Skill{
			types.NewSkill("Go", types.SkillTypeHard, 3, 3),
			types.NewSkill("Docker", types.SkillTypeHard, 2, 0),
		}),
		SoftSkills: types.SortSkills([]types.Skill{
			types.NewSkill("Teamwork", types.SkillTypeSoft, 1, 1),
		}),
		Metrics: map[string][]types.MetricFinding{},
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)
	return writeFile(t, "match_report_2.json", string(data))
}

func TestKeywordsCommand_JSON(t *testing.T) {
	path := writeReport(t)

	out, err := execute(t, "keywords", "--report", path, "--json", "--unsupported")
	require.NoError(t, err)

	var got keywordsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Iteration)
	assert.Equal(t, 74, got.Score)
	assert.Equal(t, []types.Keyword{{Name: "go", Required: 3, Actual: 3}}, got.Keywords[types.SkillTypeHard])
	assert.Equal(t, []types.Keyword{{Name: "teamwork", Required: 1, Actual: 1}}, got.Keywords[types.SkillTypeSoft])
	assert.Equal(t, []types.Keyword{{Name: "docker", Required: 2, Actual: 0}}, got.Unsupported[types.SkillTypeHard])
}

func TestKeywordsCommand_Table(t *testing.T) {
	path := writeReport(t)

	out, err := execute(t, "keywords", "--report", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Match report #2")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "teamwork")
	assert.NotContains(t, out, "docker")
}

func TestKeywordsCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no source",
			args:    []string{},
			wantErr: "exactly one of --report or --run-id",
		},
		{
			name:    "both sources",
			args:    []string{"--report", "r.json", "--run-id", "00000000-0000-0000-0000-000000000000"},
			wantErr: "exactly one of --report or --run-id",
		},
		{
			name:    "bad run id",
			args:    []string{"--run-id", "not-a-uuid"},
			wantErr: "invalid --run-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"keywords"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
