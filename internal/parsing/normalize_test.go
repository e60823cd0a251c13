package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSkillName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"golang to go", "Golang", "go"},
		{"spaced alias", "  go   lang ", "go"},
		{"k8s to kubernetes", "K8s", "kubernetes"},
		{"react.js to react", "React.js", "react"},
		{"unknown skill is lower-cased", "Distributed Systems", "distributed systems"},
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalSkillName(tt.input))
		})
	}
}

func TestExpandWhitelist(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil", nil, []string{}},
		{"plain entries", []string{"Docker", " SQL "}, []string{"docker", "sql"}},
		{"alias adds canonical", []string{"k8s"}, []string{"k8s", "kubernetes"}},
		{"duplicates collapse", []string{"Golang", "go", "GO"}, []string{"golang", "go"}},
		{"blank entries dropped", []string{"", "  "}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandWhitelist(tt.input))
		})
	}
}
