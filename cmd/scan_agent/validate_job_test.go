package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJob = `{
	"url": "https://jobs.example.com/123",
	"title": "Senior Go Engineer",
	"company": "Acme",
	"description_details": ["Build services in Go.", "Operate Kubernetes clusters."]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateJobCommand(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		args       []string
		wantErr    string
		wantOutput []string
	}{
		{
			name:       "valid target",
			content:    validJob,
			wantOutput: []string{"Validation passed", "Senior Go Engineer", "Acme"},
		},
		{
			name:    "quiet",
			content: validJob,
			args:    []string{"--quiet"},
		},
		{
			name:    "missing company",
			content: `{"title": "Engineer", "description_details": ["Ship code."]}`,
			wantErr: "validation failed",
		},
		{
			name:    "not JSON",
			content: `title: Engineer`,
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "job_target.json", tt.content)
			out, err := execute(t, append([]string{"validate-job", path}, tt.args...)...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if len(tt.wantOutput) == 0 {
				assert.Empty(t, out)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestValidateJobCommand_RequiresPath(t *testing.T) {
	_, err := execute(t, "validate-job")
	assert.Error(t, err)
}
