package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTarget_String(t *testing.T) {
	job := JobTarget{
		URL:                "https://jobs.example.com/42",
		Title:              "Backend Engineer",
		Company:            "Acme",
		DescriptionDetails: []string{"Build APIs.", "Own services."},
	}
	assert.Equal(t, "Backend Engineer\nAcme\nBuild APIs.\nOwn services.", job.String())
}

func TestJobTarget_Validate(t *testing.T) {
	valid := JobTarget{Title: "Engineer", Company: "Acme", DescriptionDetails: []string{"Do things"}}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(j *JobTarget)
	}{
		{"missing title", func(j *JobTarget) { j.Title = "" }},
		{"missing company", func(j *JobTarget) { j.Company = "" }},
		{"no description", func(j *JobTarget) { j.DescriptionDetails = nil }},
		{"bad url", func(j *JobTarget) { j.URL = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid
			tt.mutate(&job)
			assert.Error(t, job.Validate())
		})
	}
}

func TestJobTarget_JSONUnmarshaling(t *testing.T) {
	jsonInput := `{
		"url": "https://jobs.example.com/42",
		"title": "QA Automation Engineer",
		"company": "Delart",
		"description_details": ["Write tests", "Automate pipelines"]
	}`

	var job JobTarget
	require.NoError(t, json.Unmarshal([]byte(jsonInput), &job))
	assert.Equal(t, "Delart", job.Company)
	assert.Len(t, job.DescriptionDetails, 2)
}

func TestKeyword_JSONMarshaling(t *testing.T) {
	jsonBytes, err := json.Marshal(Keyword{Name: "go", Required: 2, Actual: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "go", "required": 2, "actual": 1}`, string(jsonBytes))
}
