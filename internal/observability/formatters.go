// Package observability renders scan results for the terminal.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonathan/resume-scanner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow caps list sections
	maxItemsToShow = 5
)

// Printer writes human-readable summaries of job targets and reports.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // terminal output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// ScoreString colors a score: green from 80, yellow from 60, red below.
func ScoreString(score int) string {
	switch {
	case score >= 80:
		return color.GreenString("%d/100", score)
	case score >= 60:
		return color.YellowString("%d/100", score)
	default:
		return color.RedString("%d/100", score)
	}
}

// PrintJobTarget outputs the job a scan runs against.
func (p *Printer) PrintJobTarget(job *types.JobTarget) {
	if job == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company:  %s\n", job.Company)
	fmt.Fprintf(&sb, "Title:    %s\n", job.Title)
	if job.URL != "" {
		fmt.Fprintf(&sb, "URL:      %s\n", job.URL)
	}
	fmt.Fprintf(&sb, "\nDescription: %d paragraphs\n", len(job.DescriptionDetails))
	count := min(len(job.DescriptionDetails), maxItemsToShow)
	for _, paragraph := range job.DescriptionDetails[:count] {
		fmt.Fprintf(&sb, "  • %s\n", paragraph)
	}
	if len(job.DescriptionDetails) > maxItemsToShow {
		fmt.Fprintf(&sb, "  ... and %d more\n", len(job.DescriptionDetails)-maxItemsToShow)
	}

	p.printBox("JOB TARGET", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the score line, both skill tables and the open findings.
//
//nolint:errcheck // terminal output
func (p *Printer) PrintReport(report *types.MatchReport) {
	if report == nil {
		return
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, color.New(color.Bold, color.Underline).Sprintf("Match Report #%d", report.Iteration))
	fmt.Fprintf(p.out, "%s at %s\n", report.JobTitle, report.Company)
	fmt.Fprintf(p.out, "Score: %s\n", ScoreString(report.Score))
	if report.ReportURL != "" {
		fmt.Fprintf(p.out, "Report: %s\n", report.ReportURL)
	}

	p.PrintSkills("Hard skills", report.HardSkills)
	p.PrintSkills("Soft skills", report.SoftSkills)
	p.PrintOpenFindings(report)
}

// PrintSkills renders one skill category as a table, missing skills first.
//
//nolint:errcheck // terminal output
func (p *Printer) PrintSkills(title string, skills types.SkillsByAppliance) {
	if len(skills.Applied)+len(skills.Missing) == 0 {
		return
	}

	fmt.Fprintf(p.out, "\n%s\n", color.New(color.Bold).Sprint(title))
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Skill", "Resume", "Job", "Status", "Supported"})
	for _, s := range skills.Missing {
		t.AppendRow(table.Row{s.Name, s.ActualQuantity, s.RequiredQuantity, color.RedString("missing"), yesNo(s.IsSupported)})
	}
	for _, s := range skills.Applied {
		t.AppendRow(table.Row{s.Name, s.ActualQuantity, s.RequiredQuantity, color.GreenString("applied"), yesNo(s.IsSupported)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintOpenFindings lists every finding with a failing or warning check, by section.
//
//nolint:errcheck // terminal output
func (p *Printer) PrintOpenFindings(report *types.MatchReport) {
	open := report.OpenFindings()
	if len(open) == 0 {
		fmt.Fprintf(p.out, "\n%s All checks pass\n", color.GreenString("✓"))
		return
	}

	sections := make([]string, 0, len(open))
	for section := range open {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	for _, section := range sections {
		fmt.Fprintf(p.out, "\n%s\n", color.New(color.Bold).Sprint(section))
		for _, finding := range open[section] {
			fmt.Fprintf(p.out, "  %s %s\n", color.YellowString("⚠"), finding.Title)
			for _, check := range finding.Checks {
				if check.Status.IsIssue() {
					fmt.Fprintf(p.out, "      [%s] %s\n", check.Status, check.Description)
				}
			}
		}
	}
}

// PrintKeywords renders the tailoring projection of a report.
//
//nolint:errcheck // terminal output
func (p *Printer) PrintKeywords(keywords map[types.SkillType][]types.Keyword) {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Type", "Keyword", "Required", "Actual"})
	for _, skillType := range []types.SkillType{types.SkillTypeHard, types.SkillTypeSoft} {
		for _, k := range keywords[skillType] {
			t.AppendRow(table.Row{skillType, k.Name, k.Required, k.Actual})
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintIteration prints the one-line progress marker of a rescan loop.
//
//nolint:errcheck // terminal output
func (p *Printer) PrintIteration(iteration, maxIterations int) {
	fmt.Fprintf(p.out, "\n%s Iteration %d/%d\n", color.CyanString("→"), iteration, maxIterations)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
