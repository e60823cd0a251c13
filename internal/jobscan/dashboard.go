package jobscan

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/types"
)

// Dashboard is the landing page a new scan starts from.
type Dashboard struct {
	driver *interaction.Driver
	opts   Options
}

// NewDashboard binds the dashboard to a driver.
func NewDashboard(driver *interaction.Driver, opts Options) *Dashboard {
	return &Dashboard{driver: driver, opts: opts.withDefaults()}
}

// Open navigates to the home URL and waits until the page is there. Navigation
// is retried; exhausting the attempts is a *NavigationError.
func (d *Dashboard) Open(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "jobscan.dashboard.open")
	defer span.End()
	span.SetAttributes(attribute.String("url", d.opts.HomeURL))

	if d.opts.HomeURL == "" {
		return &NavigationError{Message: "home URL is not configured"}
	}
	home := regexp.MustCompile("^" + regexp.QuoteMeta(d.opts.HomeURL))
	page := d.driver.Page()
	logger := d.opts.Logger

	attempt := 0
	op := func() error {
		attempt++
		logger.Info("navigating to dashboard", "attempt", attempt, "max_attempts", d.opts.NavigationAttempts)
		if err := page.Navigate(ctx, d.opts.HomeURL); err != nil {
			return err
		}
		return browser.WaitForURL(ctx, page, home, d.opts.ResultTimeout)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.opts.NavigationPause), uint64(d.opts.NavigationAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, _ time.Duration) {
		logger.Warn("dashboard navigation failed", "attempt", attempt, "error", err)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return &NavigationError{
			URL:     d.opts.HomeURL,
			Message: fmt.Sprintf("failed to open dashboard after %d attempts", attempt),
			Cause:   err,
		}
	}
	logger.Info("dashboard loaded")
	return nil
}

// Scan submits documentPath against job and waits for the result view. A scan
// that does not reach the result view in time fails; it is not retried here.
func (d *Dashboard) Scan(ctx context.Context, documentPath string, job types.JobTarget) (*ReportPage, error) {
	ctx, span := tracer.Start(ctx, "jobscan.dashboard.scan")
	defer span.End()

	page := d.driver.Page()
	before, err := page.URL(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read dashboard URL: %w", err)
	}

	form := newScanForm(d.driver, "", d.opts)
	if err := form.Submit(ctx, documentPath, job); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := waitForResult(ctx, page, d.opts, before); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return newReportPage(d.driver, d.opts, job, 1), nil
}

// waitForResult blocks until the URL matches the result pattern and differs from previous.
func waitForResult(ctx context.Context, page browser.Page, opts Options, previous string) error {
	if opts.ResultURL == nil {
		return &NavigationError{URL: previous, Message: "result URL pattern is not configured"}
	}
	err := browser.Poll(ctx, browser.DefaultPollInterval, opts.ResultTimeout, func(ctx context.Context) (bool, error) {
		u, err := page.URL(ctx)
		if err != nil {
			return false, err
		}
		return u != previous && opts.ResultURL.MatchString(u), nil
	})
	if err != nil {
		return &TimeoutError{Operation: "waiting for the result page", Cause: err}
	}
	return nil
}
