package jobscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

// ReportPage is the rendered result of one scan.
type ReportPage struct {
	driver    *interaction.Driver
	opts      Options
	job       types.JobTarget
	iteration int
}

func newReportPage(driver *interaction.Driver, opts Options, job types.JobTarget, iteration int) *ReportPage {
	return &ReportPage{driver: driver, opts: opts, job: job, iteration: iteration}
}

// OpenReportPage binds to a result page that is already showing, e.g. after a
// scan started outside this package.
func OpenReportPage(driver *interaction.Driver, opts Options, job types.JobTarget, iteration int) *ReportPage {
	return newReportPage(driver, opts.withDefaults(), job, max(iteration, 1))
}

// Iteration is the ordinal of the scan this page shows.
func (r *ReportPage) Iteration() int {
	return r.iteration
}

// Job is the job target the page was scanned against.
func (r *ReportPage) Job() types.JobTarget {
	return r.job
}

// Extract reads the page into a report. Fixable job details are corrected in
// place along the way. Any failure aborts the whole extraction.
func (r *ReportPage) Extract(ctx context.Context) (_ *types.MatchReport, err error) {
	ctx, span := tracer.Start(ctx, "jobscan.extract")
	span.SetAttributes(attribute.Int("iteration", r.iteration))
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction failed")
		}
		getInstruments().extractions.Record(ctx, time.Since(started).Seconds())
		span.End()
	}()

	score, err := r.awaitLoad(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.dismissInfoModal(ctx); err != nil {
		return nil, err
	}

	reportURL, err := r.driver.Page().URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read report URL: %w", err)
	}

	report := &types.MatchReport{
		JobTitle:  r.job.Title,
		Company:   r.job.Company,
		Iteration: r.iteration,
		Score:     score,
		ReportURL: reportURL,
		Metrics:   make(map[string][]types.MetricFinding),
	}
	for _, s := range sections {
		if err := r.extractSection(ctx, s, report); err != nil {
			return nil, err
		}
	}
	report.ScannedAt = r.opts.Now().UTC()

	if err := report.Validate(); err != nil {
		return nil, &ClassificationError{Message: "extracted report is invalid", Cause: err}
	}
	span.SetAttributes(attribute.Int("score", score))
	getInstruments().score.Record(ctx, int64(score))
	r.opts.Logger.Info("match report extracted", "score", score, "iteration", r.iteration)
	return report, nil
}

// awaitLoad waits for the result title and then for the score to stop changing.
func (r *ReportPage) awaitLoad(ctx context.Context) (int, error) {
	page := r.driver.Page()
	if err := browser.WaitFor(ctx, page, resultTitle, browser.StateVisible, r.opts.ResultTimeout); err != nil {
		return 0, &TimeoutError{Operation: "waiting for the result title", Cause: err}
	}

	var (
		last    string
		hasLast bool
		score   int
	)
	err := browser.Poll(ctx, r.opts.ScorePollInterval, r.opts.StabilityTimeout, func(ctx context.Context) (bool, error) {
		text, err := browser.FirstText(ctx, page, scoreValue)
		if err != nil {
			hasLast = false
			return false, err
		}
		text = strings.TrimSpace(text)
		stable := hasLast && text == last
		last, hasLast = text, true
		if !stable {
			return false, nil
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return false, &ClassificationError{Message: "score is not a number", Value: text, Cause: err}
		}
		score = n
		return true, nil
	})
	if err != nil {
		return 0, &TimeoutError{Operation: "waiting for a stable score", Cause: err}
	}
	if score < 0 || score > 100 {
		return 0, &ClassificationError{Message: "score is out of range", Value: strconv.Itoa(score)}
	}
	r.opts.Logger.Debug("score is stable", "score", score)
	return score, nil
}

// dismissInfoModal closes the informational modal when it is showing.
func (r *ReportPage) dismissInfoModal(ctx context.Context) error {
	switch r.driver.Probe(ctx, infoModal, r.opts.InfoModalTimeout) {
	case interaction.Absent:
		return nil
	case interaction.TimedOut:
		return &TimeoutError{Operation: "checking for the report info modal"}
	}

	if err := r.driver.MustClickWithHumanMotion(ctx, infoModalDismiss); err != nil {
		r.opts.Logger.Warn("dismiss button failed, pressing escape", "error", err)
		r.driver.Press(ctx, "Escape")
	}
	if err := browser.WaitFor(ctx, r.driver.Page(), infoModal, browser.StateHidden, modalHideTimeout); err != nil {
		return &TimeoutError{Operation: "waiting for the report info modal to close", Cause: err}
	}
	r.opts.Logger.Debug("report info modal dismissed")
	return nil
}

// Rescan submits documentPath against job from the rescan modal and returns the
// next iteration's page. The session and page are reused.
func (r *ReportPage) Rescan(ctx context.Context, documentPath string, job types.JobTarget) (*ReportPage, error) {
	ctx, span := tracer.Start(ctx, "jobscan.rescan")
	defer span.End()
	span.SetAttributes(attribute.Int("iteration", r.iteration+1))

	page := r.driver.Page()
	before, err := page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read report URL: %w", err)
	}

	if err := r.driver.MustClickWithHumanMotion(ctx, uploadAndRescan); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to open rescan: %w", err)
	}
	if err := browser.WaitFor(ctx, page, rescanModal, browser.StateVisible, modalShowTimeout); err != nil {
		span.RecordError(err)
		return nil, &TimeoutError{Operation: "waiting for the rescan modal", Cause: err}
	}

	form := newScanForm(r.driver, rescanModal, r.opts)
	if err := form.Submit(ctx, documentPath, job); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := waitForResult(ctx, page, r.opts, before); err != nil {
		span.RecordError(err)
		return nil, err
	}
	r.opts.Logger.Info("rescan finished", "iteration", r.iteration+1)
	return newReportPage(r.driver, r.opts, job, r.iteration+1), nil
}
