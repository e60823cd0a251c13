// Package types provides type definitions for structured data used throughout the resume-scanner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// Report section titles as rendered by the scoring site. The metric map is keyed by
// whatever heading the page shows; these are the headings seen today.
const (
	SectionSearchability = "Searchability"
	SectionRecruiterTips = "Recruiter tips"
	SectionFormatting    = "Formatting"
)

// MatchReport represents one extracted scan result.
// It is built once per extraction pass; a rescan produces a new report with Iteration+1.
type MatchReport struct {
	JobTitle   string                     `json:"job_title"`
	Company    string                     `json:"company"`
	Iteration  int                        `json:"iteration" validate:"min=1"`
	Score      int                        `json:"score" validate:"min=0,max=100"`
	ReportURL  string                     `json:"report_url"`
	ScannedAt  time.Time                  `json:"scanned_at"`
	HardSkills SkillsByAppliance          `json:"hard_skills"`
	SoftSkills SkillsByAppliance          `json:"soft_skills"`
	Metrics    map[string][]MetricFinding `json:"metrics"`
}

// Validate validates the MatchReport using the validator.
func (r *MatchReport) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// NextIteration returns the ordinal the next rescan's report will carry.
func (r *MatchReport) NextIteration() int {
	return r.Iteration + 1
}

// Skills returns the grouped skills of one category.
func (r *MatchReport) Skills(skillType SkillType) SkillsByAppliance {
	if skillType == SkillTypeSoft {
		return r.SoftSkills
	}
	return r.HardSkills
}

// OpenFindings returns, per section, the findings that still have a failing or warning check.
func (r *MatchReport) OpenFindings() map[string][]MetricFinding {
	open := make(map[string][]MetricFinding)
	for section, findings := range r.Metrics {
		for _, finding := range findings {
			if !finding.IsFullyApplied {
				open[section] = append(open[section], finding)
			}
		}
	}
	return open
}

// WithWhitelists returns a deep copy of the report whose skills are
// re-classified against new whitelists. The receiver is left untouched.
func (r MatchReport) WithWhitelists(hardWhitelist, softWhitelist []string) MatchReport {
	out := r
	out.HardSkills = reclassify(r.HardSkills, hardWhitelist)
	out.SoftSkills = reclassify(r.SoftSkills, softWhitelist)
	out.Metrics = copyMetrics(r.Metrics)
	return out
}

func copyMetrics(metrics map[string][]MetricFinding) map[string][]MetricFinding {
	if metrics == nil {
		return nil
	}
	out := make(map[string][]MetricFinding, len(metrics))
	for section, findings := range metrics {
		copied := slices.Clone(findings)
		for i := range copied {
			copied[i].Checks = slices.Clone(copied[i].Checks)
			for j := range copied[i].Checks {
				copied[i].Checks[j].Details = slices.Clone(copied[i].Checks[j].Details)
			}
		}
		out[section] = copied
	}
	return out
}

func reclassify(skills SkillsByAppliance, whitelist []string) SkillsByAppliance {
	out := SkillsByAppliance{
		Applied: make([]Skill, len(skills.Applied)),
		Missing: make([]Skill, len(skills.Missing)),
	}
	copy(out.Applied, skills.Applied)
	copy(out.Missing, skills.Missing)
	for i := range out.Applied {
		out.Applied[i].UpdateIsSupported(whitelist)
	}
	for i := range out.Missing {
		out.Missing[i].UpdateIsSupported(whitelist)
	}
	return out
}
