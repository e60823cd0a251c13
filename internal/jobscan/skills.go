package jobscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

// SkillsAnalyzer reads one skill comparison table.
type SkillsAnalyzer struct {
	driver    *interaction.Driver
	container browser.Locator
	skillType types.SkillType
}

// NewSkillsAnalyzer binds an analyzer to the table at container.
func NewSkillsAnalyzer(driver *interaction.Driver, container browser.Locator, skillType types.SkillType) *SkillsAnalyzer {
	return &SkillsAnalyzer{driver: driver, container: container, skillType: skillType}
}

// Process expands the table once if it is truncated, then reads the name,
// matching-count and required-count columns by position. Support is classified
// against whitelist as each skill is built.
func (a *SkillsAnalyzer) Process(ctx context.Context, whitelist []string) ([]types.Skill, error) {
	page := a.driver.Page()

	showMore := a.container.Find(showMorePath)
	if a.driver.Exists(ctx, showMore) {
		a.driver.ClickWithHumanMotion(ctx, showMore)
	}

	counts := a.container.Find(skillCountPath)
	names, err := page.Texts(ctx, a.container.Find(skillNamePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s names: %w", a.skillType, err)
	}
	matching, err := page.Texts(ctx, counts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s counts: %w", a.skillType, err)
	}
	required, err := page.Texts(ctx, counts.Find(skillRequiredPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s required counts: %w", a.skillType, err)
	}
	if len(matching) != len(names) || len(required) != len(names) {
		return nil, &ClassificationError{
			Message: fmt.Sprintf("%s table columns are misaligned: %d names, %d counts, %d required",
				a.skillType, len(names), len(matching), len(required)),
		}
	}

	skills := make([]types.Skill, 0, len(names))
	for i, name := range names {
		actual, err := a.actualCount(ctx, counts.Nth(i), matching[i])
		if err != nil {
			return nil, err
		}
		req, ok := parseLeadingInt(required[i])
		if !ok {
			return nil, &ClassificationError{Message: fmt.Sprintf("unreadable required count for %q", name), Value: required[i]}
		}
		skill := types.NewSkill(name, a.skillType, req, actual)
		skill.UpdateIsSupported(whitelist)
		skills = append(skills, skill)
	}
	return skills, nil
}

// actualCount reads a matching-count cell. The "missing" glyph means zero.
func (a *SkillsAnalyzer) actualCount(ctx context.Context, cell browser.Locator, text string) (int, error) {
	glyphs, err := a.driver.Page().Count(ctx, cell.Find(missingGlyphPath))
	if err != nil {
		return 0, fmt.Errorf("failed to inspect %s count cell: %w", a.skillType, err)
	}
	if glyphs > 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ClassificationError{Message: fmt.Sprintf("unreadable %s count", a.skillType), Value: text, Cause: err}
	}
	return n, nil
}
