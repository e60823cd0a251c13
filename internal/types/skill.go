// Package types provides type definitions for structured data used throughout the resume-scanner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// SkillType is the skill category a report section lists.
type SkillType string

const (
	// SkillTypeHard is the "Hard skills" section of a match report
	SkillTypeHard SkillType = "hard skill"
	// SkillTypeSoft is the "Soft skills" section of a match report
	SkillTypeSoft SkillType = "soft skill"
)

// ApplianceType tells whether a skill's observed usage meets the required threshold.
type ApplianceType string

const (
	// ApplianceApplied means actual usage is at least the required quantity
	ApplianceApplied ApplianceType = "applied"
	// ApplianceMissing means actual usage is below the required quantity
	ApplianceMissing ApplianceType = "missing"
)

// Skill represents one row of a skill comparison table
type Skill struct {
	Name             string    `json:"name"`
	Type             SkillType `json:"type"`
	IsSupported      bool      `json:"is_supported"`
	RequiredQuantity int       `json:"required_quantity"`
	ActualQuantity   int       `json:"actual_quantity"`
}

// NewSkill creates a skill, clamping negative quantities to zero.
func NewSkill(name string, skillType SkillType, required, actual int) Skill {
	return Skill{
		Name:             strings.TrimSpace(name),
		Type:             skillType,
		RequiredQuantity: max(required, 0),
		ActualQuantity:   max(actual, 0),
	}
}

// ApplianceType returns Applied when actual usage reaches the required quantity.
// A required quantity of zero is always Applied.
func (s Skill) ApplianceType() ApplianceType {
	if s.ActualQuantity >= s.RequiredQuantity {
		return ApplianceApplied
	}
	return ApplianceMissing
}

// UpdateIsSupported recomputes IsSupported against a whitelist and returns the new value.
// A skill is supported when the résumé already uses it or when its name is whitelisted
// (case-insensitive). A skill without a name is never supported.
func (s *Skill) UpdateIsSupported(whitelist []string) bool {
	if s.Name == "" {
		s.IsSupported = false
		return false
	}
	s.IsSupported = s.ActualQuantity > 0 || inWhitelist(s.Name, whitelist)
	return s.IsSupported
}

func inWhitelist(name string, whitelist []string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, w := range whitelist {
		if strings.ToLower(strings.TrimSpace(w)) == name {
			return true
		}
	}
	return false
}

// NormalizeWhitelist lower-cases and trims whitelist entries, dropping empty ones.
func NormalizeWhitelist(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SkillsByAppliance groups the skills of one category by appliance type
type SkillsByAppliance struct {
	Applied []Skill `json:"applied"`
	Missing []Skill `json:"missing"`
}

// SortSkills groups skills by appliance type, preserving their order.
// Both groups are non-nil so they serialize as empty arrays.
func SortSkills(skills []Skill) SkillsByAppliance {
	sorted := SkillsByAppliance{
		Applied: []Skill{},
		Missing: []Skill{},
	}
	for _, skill := range skills {
		if skill.ApplianceType() == ApplianceApplied {
			sorted.Applied = append(sorted.Applied, skill)
		} else {
			sorted.Missing = append(sorted.Missing, skill)
		}
	}
	return sorted
}

// All returns applied skills followed by missing ones.
func (s SkillsByAppliance) All() []Skill {
	all := make([]Skill, 0, len(s.Applied)+len(s.Missing))
	all = append(all, s.Applied...)
	return append(all, s.Missing...)
}
