package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() MatchReport {
	docker := NewSkill("Docker", SkillTypeHard, 2, 0)
	golang := NewSkill("Go", SkillTypeHard, 3, 3)
	teamwork := NewSkill("Teamwork", SkillTypeSoft, 1, 0)
	for _, s := range []*Skill{&docker, &golang} {
		s.UpdateIsSupported([]string{"docker"})
	}
	teamwork.UpdateIsSupported(nil)

	return MatchReport{
		JobTitle:   "Backend Engineer",
		Company:    "Acme",
		Iteration:  1,
		Score:      82,
		ReportURL:  "https://app.example.com/match-report/123",
		ScannedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		HardSkills: SortSkills([]Skill{docker, golang}),
		SoftSkills: SortSkills([]Skill{teamwork}),
		Metrics: map[string][]MetricFinding{
			SectionSearchability: {
				NewMetricFinding("Job Title Match", []Check{{Description: "title", Status: CheckStatusFail, Details: []string{}}}),
				NewMetricFinding("File Type", []Check{{Description: "docx", Status: CheckStatusPass, Details: []string{}}}),
			},
		},
	}
}

func TestMatchReport_JSONShape(t *testing.T) {
	report := sampleReport()
	jsonBytes, err := json.Marshal(report)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &raw))
	for _, key := range []string{"job_title", "company", "iteration", "score", "report_url", "scanned_at", "hard_skills", "soft_skills", "metrics"} {
		assert.Contains(t, raw, key)
	}
	hard := raw["hard_skills"].(map[string]any)
	assert.Contains(t, hard, "applied")
	assert.Contains(t, hard, "missing")

	var decoded MatchReport
	require.NoError(t, json.Unmarshal(jsonBytes, &decoded))
	assert.Equal(t, report.ScannedAt, decoded.ScannedAt.UTC())
	assert.Equal(t, report.Metrics, decoded.Metrics)
}

func TestMatchReport_Validate(t *testing.T) {
	report := sampleReport()
	assert.NoError(t, report.Validate())

	report.Score = 101
	assert.Error(t, report.Validate())

	report = sampleReport()
	report.Iteration = 0
	assert.Error(t, report.Validate())
}

func TestMatchReport_KeywordsToPrompt(t *testing.T) {
	report := sampleReport()

	keywords := report.KeywordsToPrompt()
	require.Len(t, keywords[SkillTypeHard], 2)
	assert.Equal(t, Keyword{Name: "go", Required: 3, Actual: 3}, keywords[SkillTypeHard][0])
	assert.Equal(t, Keyword{Name: "docker", Required: 2, Actual: 0}, keywords[SkillTypeHard][1])
	assert.Empty(t, keywords[SkillTypeSoft])

	unsupported := report.UnsupportedKeywords()
	assert.Empty(t, unsupported[SkillTypeHard])
	require.Len(t, unsupported[SkillTypeSoft], 1)
	assert.Equal(t, "teamwork", unsupported[SkillTypeSoft][0].Name)
}

func TestMatchReport_WithWhitelistsReturnsCopy(t *testing.T) {
	report := sampleReport()

	updated := report.WithWhitelists(nil, []string{"TEAMWORK"})

	assert.False(t, updated.HardSkills.Missing[0].IsSupported, "docker dropped from whitelist")
	assert.True(t, updated.SoftSkills.Missing[0].IsSupported)
	assert.True(t, report.HardSkills.Missing[0].IsSupported, "original report must not change")
	assert.False(t, report.SoftSkills.Missing[0].IsSupported, "original report must not change")

	updated.Metrics[SectionSearchability][0].Checks[0].Status = CheckStatusPass
	updated.Metrics[SectionSearchability][0].Checks[0].Details = append(updated.Metrics[SectionSearchability][0].Checks[0].Details, "x")
	updated.Metrics[SectionFormatting] = nil
	assert.Equal(t, CheckStatusFail, report.Metrics[SectionSearchability][0].Checks[0].Status)
	assert.Empty(t, report.Metrics[SectionSearchability][0].Checks[0].Details)
	assert.NotContains(t, report.Metrics, SectionFormatting)
}

func TestMatchReport_OpenFindings(t *testing.T) {
	report := sampleReport()
	open := report.OpenFindings()
	require.Len(t, open[SectionSearchability], 1)
	assert.Equal(t, "Job Title Match", open[SectionSearchability][0].Title)
	assert.Equal(t, 2, report.NextIteration())
}
