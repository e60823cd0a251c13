package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepStatusConstants(t *testing.T) {
	assert.Equal(t, "in_progress", StepStatusInProgress)
	assert.Equal(t, "completed", StepStatusCompleted)
	assert.Equal(t, "failed", StepStatusFailed)
}

func TestStepName(t *testing.T) {
	tests := []struct {
		step      string
		iteration int
		want      string
	}{
		{StepScan, 0, "scan"},
		{StepExtract, 1, "extract_1"},
		{StepPersist, -1, "persist"},
		{StepExtract, 2, "extract_2"},
		{StepRescan, 3, "rescan_3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StepName(tt.step, tt.iteration))
		})
	}
}
