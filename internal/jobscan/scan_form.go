package jobscan

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

// NewScanForm is the upload + job description + Scan form. The dashboard shows
// it inline; the rescan modal shows the same form inside a card.
type NewScanForm struct {
	driver *interaction.Driver
	// scope is the container the form lives in; empty means the whole page.
	scope browser.Locator
	opts  Options
}

func newScanForm(driver *interaction.Driver, scope browser.Locator, opts Options) *NewScanForm {
	return &NewScanForm{driver: driver, scope: scope, opts: opts}
}

func (f *NewScanForm) loc(path string) browser.Locator {
	if f.scope == "" {
		return browser.XPath("//" + path)
	}
	return f.scope.Find(path)
}

// Submit uploads the document, pastes the job text and runs the scan. It returns
// once the loading overlay has appeared and gone again.
func (f *NewScanForm) Submit(ctx context.Context, documentPath string, job types.JobTarget) (err error) {
	ctx, span := tracer.Start(ctx, "jobscan.scan_form.submit")
	defer span.End()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
			span.RecordError(err)
		}
		getInstruments().scans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	logger := f.opts.Logger
	page := f.driver.Page()

	if err := f.driver.MustClickWithHumanMotion(ctx, f.loc(resumeTextAreaPath)); err != nil {
		return fmt.Errorf("failed to focus resume text area: %w", err)
	}
	if err := f.driver.MustUpload(ctx, f.loc(dropTargetPath), documentPath); err != nil {
		return fmt.Errorf("failed to upload %s: %w", documentPath, err)
	}
	logger.Info("document uploaded", "path", documentPath)

	if err := f.driver.MustFillWithHumanMotion(ctx, f.loc(jobDescriptionPath), job.String()); err != nil {
		return fmt.Errorf("failed to fill job description: %w", err)
	}

	scan := f.loc(scanButtonPath)
	if err := browser.WaitFor(ctx, page, scan, browser.StateEnabled, scanEnableTimeout); err != nil {
		return &TimeoutError{Operation: "waiting for the scan button to be enabled", Cause: err}
	}
	if err := f.driver.MustClickWithHumanMotion(ctx, scan); err != nil {
		return fmt.Errorf("failed to click scan: %w", err)
	}

	overlay := f.loc(loadingOverlayPath)
	if err := browser.WaitFor(ctx, page, overlay, browser.StateVisible, overlayShowTimeout); err != nil {
		return &TimeoutError{Operation: "waiting for the loading overlay to appear", Cause: err}
	}
	if err := browser.WaitFor(ctx, page, overlay, browser.StateHidden, f.opts.ResultTimeout); err != nil {
		return &TimeoutError{Operation: "waiting for the loading overlay to disappear", Cause: err}
	}
	logger.Info("scan submitted", "job_title", job.Title, "company", job.Company)
	return nil
}
