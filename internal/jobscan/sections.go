package jobscan

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

type sectionKind int

const (
	checkSection sectionKind = iota
	skillSection
)

// section is one block of the report. The set is closed; extraction order follows the page.
type section struct {
	key       string // id of the anchor element
	label     string // label in the match-rate bar
	kind      sectionKind
	skillType types.SkillType
}

var sections = []section{
	{key: "searchability", label: types.SectionSearchability, kind: checkSection},
	{key: "hardSkills", label: "Hard skills", kind: skillSection, skillType: types.SkillTypeHard},
	{key: "softSkills", label: "Soft skills", kind: skillSection, skillType: types.SkillTypeSoft},
	{key: "recruiterTips", label: types.SectionRecruiterTips, kind: checkSection},
	{key: "formatting", label: types.SectionFormatting, kind: checkSection},
}

func (r *ReportPage) extractSection(ctx context.Context, s section, report *types.MatchReport) (err error) {
	ctx, span := tracer.Start(ctx, "jobscan.extract."+s.key)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	r.preExpand(ctx, s)

	switch s.kind {
	case skillSection:
		whitelist := r.opts.HardWhitelist
		if s.skillType == types.SkillTypeSoft {
			whitelist = r.opts.SoftWhitelist
		}
		skills, err := NewSkillsAnalyzer(r.driver, skillsContainer(s.key), s.skillType).Process(ctx, whitelist)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("skills", len(skills)))
		if s.skillType == types.SkillTypeHard {
			report.HardSkills = types.SortSkills(skills)
		} else {
			report.SoftSkills = types.SortSkills(skills)
		}
		return nil
	default:
		title, findings, err := r.extractFindings(ctx, s)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("findings", len(findings)))
		report.Metrics[title] = findings
		return nil
	}
}

// preExpand clicks a section's entry in the match-rate bar when it reports open
// issues. It only expands the UI; every section is extracted either way.
func (r *ReportPage) preExpand(ctx context.Context, s section) {
	issues := matchRateIssues(s.label)
	if r.driver.Probe(ctx, issues, 0) != interaction.Present {
		return
	}
	text, err := browser.FirstText(ctx, r.driver.Page(), issues)
	if err != nil {
		return
	}
	if n, ok := parseLeadingInt(text); ok && n > 0 {
		r.opts.Logger.Debug("expanding section with issues", "section", s.key, "issues", n)
		r.driver.ClickWithHumanMotion(ctx, issues)
	}
}

// extractFindings reads a check section: its heading and every finding below it.
func (r *ReportPage) extractFindings(ctx context.Context, s section) (string, []types.MetricFinding, error) {
	page := r.driver.Page()

	heading, err := browser.FirstText(ctx, page, sectionAnchor(s.key).Find("h3"))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s heading: %w", s.key, err)
	}
	title := firstLine(heading)
	if title == "" {
		return "", nil, &ClassificationError{Message: fmt.Sprintf("%s section has an empty heading", s.key)}
	}

	all := sectionFindings(s.key)
	n, err := page.Count(ctx, all)
	if err != nil {
		return "", nil, fmt.Errorf("failed to count %s findings: %w", s.key, err)
	}

	findings := make([]types.MetricFinding, 0, n)
	for i := range n {
		finding, err := r.extractFinding(ctx, all.Nth(i))
		if err != nil {
			return "", nil, err
		}
		findings = append(findings, finding)
	}
	return title, findings, nil
}

func (r *ReportPage) extractFinding(ctx context.Context, loc browser.Locator) (types.MetricFinding, error) {
	page := r.driver.Page()

	raw, err := browser.FirstText(ctx, page, loc.Find(findingTitlePath))
	if err != nil {
		return types.MetricFinding{}, fmt.Errorf("failed to read finding title: %w", err)
	}
	title := strings.TrimSpace(raw)

	rows := loc.Find(checkRowPath)
	n, err := page.Count(ctx, rows)
	if err != nil {
		return types.MetricFinding{}, fmt.Errorf("failed to count checks of %q: %w", title, err)
	}

	checks := make([]types.Check, 0, n)
	for i := range n {
		check, err := r.extractCheck(ctx, title, rows.Nth(i))
		if err != nil {
			return types.MetricFinding{}, err
		}
		checks = append(checks, check)
	}
	return types.NewMetricFinding(title, checks), nil
}

// extractCheck reads one check row. Evidence is captured when offered; otherwise
// an issue with an Update affordance is remediated and its status re-read.
func (r *ReportPage) extractCheck(ctx context.Context, finding string, row browser.Locator) (types.Check, error) {
	status, err := r.readStatus(ctx, row)
	if err != nil {
		return types.Check{}, err
	}

	details := []string{}
	evidence := row.Find(evidencePath)
	update := row.Find(updatePath)
	switch {
	case r.driver.Exists(ctx, evidence):
		if details, err = r.readEvidence(ctx, evidence); err != nil {
			return types.Check{}, err
		}
	case status.IsIssue() && r.driver.Exists(ctx, update):
		if status, err = r.remediate(ctx, finding, row, update, status); err != nil {
			return types.Check{}, err
		}
	}

	desc, err := browser.FirstText(ctx, r.driver.Page(), row.Find(checkDescPath))
	if err != nil {
		return types.Check{}, fmt.Errorf("failed to read check description in %q: %w", finding, err)
	}
	return types.Check{
		Description: strings.TrimSpace(desc),
		Details:     details,
		Status:      status,
	}, nil
}

// readStatus maps the last class token of the row's indicator to a status.
func (r *ReportPage) readStatus(ctx context.Context, row browser.Locator) (types.CheckStatus, error) {
	class, err := r.driver.Page().Attribute(ctx, row.Find(checkIconPath).First(), "class")
	if err != nil {
		return "", fmt.Errorf("failed to read check indicator: %w", err)
	}
	token := lastClassToken(class)
	status, err := types.ParseCheckStatus(token)
	if err != nil {
		return "", &ClassificationError{Message: "unrecognized check status", Value: token, Cause: err}
	}
	return status, nil
}

// readEvidence opens the evidence modal, captures its lines and closes it again.
func (r *ReportPage) readEvidence(ctx context.Context, evidence browser.Locator) ([]string, error) {
	page := r.driver.Page()
	if err := r.driver.MustClickWithHumanMotion(ctx, evidence); err != nil {
		return nil, fmt.Errorf("failed to open evidence: %w", err)
	}
	if err := browser.WaitFor(ctx, page, evidenceModal, browser.StateVisible, modalShowTimeout); err != nil {
		return nil, &TimeoutError{Operation: "waiting for the evidence modal", Cause: err}
	}

	markup, err := page.OuterHTML(ctx, evidenceModal)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence modal: %w", err)
	}
	lines, err := textLines(markup)
	if err != nil {
		return nil, fmt.Errorf("failed to parse evidence modal: %w", err)
	}

	if err := r.driver.MustClickWithHumanMotion(ctx, evidenceModalClose); err != nil {
		return nil, fmt.Errorf("failed to close evidence: %w", err)
	}
	if err := browser.WaitFor(ctx, page, evidenceModal, browser.StateHidden, modalHideTimeout); err != nil {
		return nil, &TimeoutError{Operation: "waiting for the evidence modal to close", Cause: err}
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

// remediate opens the correction modal behind an Update affordance and applies
// the matching correction. The returned status is re-read from the page.
func (r *ReportPage) remediate(ctx context.Context, finding string, row, update browser.Locator, status types.CheckStatus) (types.CheckStatus, error) {
	page := r.driver.Page()
	record := func(outcome string) {
		getInstruments().remediations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("finding", finding), attribute.String("outcome", outcome)))
	}

	if finding == jobTitleMatchFinding {
		if recorded, ok := r.recordedTitle(ctx); ok && recorded == r.job.Title {
			record("unchanged")
			r.opts.Logger.Info("recorded job title already matches, leaving check as is", "finding", finding)
			return status, nil
		}
	}

	if err := r.driver.MustClickWithHumanMotion(ctx, update); err != nil {
		return "", fmt.Errorf("failed to open correction for %q: %w", finding, err)
	}
	if err := browser.WaitFor(ctx, page, correctionModalHeading, browser.StateVisible, modalShowTimeout); err != nil {
		return "", &TimeoutError{Operation: "waiting for the correction modal", Cause: err}
	}
	heading, err := browser.FirstText(ctx, page, correctionModalHeading)
	if err != nil {
		return "", fmt.Errorf("failed to read correction modal heading: %w", err)
	}
	heading = strings.TrimSpace(heading)

	if heading != "Job Opportunity" {
		record("unimplemented")
		return "", &UnimplementedRemediationError{Heading: heading, Finding: finding}
	}

	submitted, err := r.updateJobOpportunity(ctx, finding)
	if err != nil {
		return "", err
	}
	if !submitted {
		r.driver.Press(ctx, "Escape")
		if err := browser.WaitFor(ctx, page, correctionModalHeading, browser.StateHidden, modalHideTimeout); err != nil {
			return "", &TimeoutError{Operation: "waiting for the correction modal to close", Cause: err}
		}
		record("unchanged")
		r.opts.Logger.Info("recorded job details already match, leaving check as is", "finding", finding)
		return status, nil
	}

	if err := browser.WaitFor(ctx, page, correctionModalHeading, browser.StateHidden, modalHideTimeout); err != nil {
		return "", &TimeoutError{Operation: "waiting for the correction modal to close", Cause: err}
	}
	corrected, err := r.readStatus(ctx, row)
	if err != nil {
		return "", err
	}
	record("updated")
	r.opts.Logger.Info("job details corrected", "finding", finding, "before", status, "after", corrected)
	return corrected, nil
}

// recordedTitle reads the job title the site holds for this scan without
// opening the correction modal. It reports false when the form is not rendered
// until the modal opens.
func (r *ReportPage) recordedTitle(ctx context.Context) (string, bool) {
	page := r.driver.Page()
	n, err := page.Count(ctx, jobTitleInput)
	if err != nil || n == 0 {
		return "", false
	}
	title, err := page.InputValue(ctx, jobTitleInput)
	if err != nil {
		return "", false
	}
	return title, true
}

// updateJobOpportunity writes the job target into the fields that differ and
// submits. For the job title finding nothing is submitted when the recorded
// title already matches, since the mismatch is then in the résumé itself.
func (r *ReportPage) updateJobOpportunity(ctx context.Context, finding string) (bool, error) {
	page := r.driver.Page()

	type field struct {
		name string
		loc  browser.Locator
		want string
	}
	fields := []field{
		{"company", companyInput, r.job.Company},
		{"job title", jobTitleInput, r.job.Title},
	}
	if r.job.URL != "" {
		fields = append(fields, field{"url", jobURLInput, r.job.URL})
	}

	var stale []field
	titleStale := false
	for _, f := range fields {
		got, err := page.InputValue(ctx, f.loc)
		if err != nil {
			return false, fmt.Errorf("failed to read %s field: %w", f.name, err)
		}
		if got != f.want {
			stale = append(stale, f)
			titleStale = titleStale || f.loc == jobTitleInput
		}
	}
	if finding == jobTitleMatchFinding && !titleStale {
		return false, nil
	}

	for _, f := range stale {
		if err := r.driver.MustFillWithHumanMotion(ctx, f.loc, f.want); err != nil {
			return false, fmt.Errorf("failed to fill %s: %w", f.name, err)
		}
	}
	if err := r.driver.MustClickWithHumanMotion(ctx, updateDetailsButton); err != nil {
		return false, fmt.Errorf("failed to submit job details: %w", err)
	}
	return true, nil
}
