package parsing

import (
	"strings"

	"github.com/jonathan/resume-scanner/internal/types"
)

// skillAliases maps common skill name variants to the spelling the scoring site uses
var skillAliases = map[string]string{
	"golang":    "go",
	"go lang":   "go",
	"js":        "javascript",
	"ts":        "typescript",
	"k8s":       "kubernetes",
	"react.js":  "react",
	"reactjs":   "react",
	"vue.js":    "vue",
	"vuejs":     "vue",
	"nodejs":    "node.js",
	"postgres":  "postgresql",
	"gcp":       "google cloud",
	"aws cloud": "aws",
	"ci/cd":     "ci/cd",
	"ci cd":     "ci/cd",
	"github ci": "github actions",
	"tf":        "terraform",
	"py":        "python",
}

// CanonicalSkillName lower-cases a skill name and resolves known aliases.
func CanonicalSkillName(name string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if canonical, ok := skillAliases[lower]; ok {
		return canonical
	}
	return lower
}

// ExpandWhitelist normalizes whitelist entries and adds the canonical spelling
// of every alias, so "k8s" in a config also supports "Kubernetes". Entries are
// deduplicated; order follows first appearance.
func ExpandWhitelist(values []string) []string {
	normalized := types.NormalizeWhitelist(values)
	out := make([]string, 0, len(normalized))
	seen := make(map[string]bool, len(normalized))
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range normalized {
		add(v)
		add(CanonicalSkillName(v))
	}
	return out
}
