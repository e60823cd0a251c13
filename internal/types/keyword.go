// Package types provides type definitions for structured data used throughout the resume-scanner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Keyword is a skill projected for the content-tailoring step
type Keyword struct {
	Name     string `json:"name"`
	Required int    `json:"required"`
	Actual   int    `json:"actual"`
}

// KeywordsToPrompt returns the supported skills of both categories as keywords.
// This is the read-only projection the tailoring step consumes.
func (r *MatchReport) KeywordsToPrompt() map[SkillType][]Keyword {
	return map[SkillType][]Keyword{
		SkillTypeHard: toKeywords(r.HardSkills, true),
		SkillTypeSoft: toKeywords(r.SoftSkills, true),
	}
}

// UnsupportedKeywords returns the skills the résumé cannot honestly claim.
func (r *MatchReport) UnsupportedKeywords() map[SkillType][]Keyword {
	return map[SkillType][]Keyword{
		SkillTypeHard: toKeywords(r.HardSkills, false),
		SkillTypeSoft: toKeywords(r.SoftSkills, false),
	}
}

func toKeywords(skills SkillsByAppliance, supported bool) []Keyword {
	keywords := []Keyword{}
	for _, skill := range skills.All() {
		if skill.IsSupported != supported {
			continue
		}
		keywords = append(keywords, Keyword{
			Name:     strings.ToLower(skill.Name),
			Required: skill.RequiredQuantity,
			Actual:   skill.ActualQuantity,
		})
	}
	return keywords
}
