package jobscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLines(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{
			name:   "blocks become lines",
			markup: `<div><p>Email found</p><p>  jane@example.com </p></div>`,
			want:   []string{"Email found", "jane@example.com"},
		},
		{
			name:   "inline runs are joined",
			markup: `<div><span>Phone:</span> <b>555</b>-0100</div>`,
			want:   []string{"Phone: 555-0100"},
		},
		{
			name:   "list items",
			markup: `<ul><li>Go</li><li>Docker</li></ul>`,
			want:   []string{"Go", "Docker"},
		},
		{
			name:   "scripts are skipped",
			markup: `<div>Visible<script>var x = 1;</script></div>`,
			want:   []string{"Visible"},
		},
		{
			name:   "empty markup",
			markup: `<div>   </div>`,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textLines(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Searchability", firstLine("\n  Searchability\n3 issues to fix"))
	assert.Equal(t, "", firstLine(" \n "))
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3 times", 3, true},
		{"  12 issues to fix", 12, true},
		{"1 time", 1, true},
		{"0", 0, true},
		{"times 3", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLeadingInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastClassToken(t *testing.T) {
	assert.Equal(t, "warn", lastClassToken("checkIcon icon  warn "))
	assert.Equal(t, "", lastClassToken(""))
}
