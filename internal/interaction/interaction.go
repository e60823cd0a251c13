// Package interaction is the human-paced input layer every UI action goes through.
//
// Each primitive is retried a bounded number of times with a fixed pause and is
// followed by a random delay. Lenient variants log exhausted retries and report
// false; Must variants return the error for callers that require success.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonathan/resume-scanner/internal/browser"
)

// Defaults used when no option overrides them.
const (
	DefaultMinDelay     = 400 * time.Millisecond
	DefaultMaxDelay     = 1200 * time.Millisecond
	DefaultMaxAttempts  = 3
	DefaultRetryPause   = 250 * time.Millisecond
	DefaultProbeTimeout = 500 * time.Millisecond
)

// ProbeResult is the outcome of an existence probe.
type ProbeResult int

const (
	// Absent means the page answered and the element was not visible within the timeout.
	Absent ProbeResult = iota
	// Present means a visible element matched.
	Present
	// TimedOut means the page could not be queried before the deadline.
	TimedOut
)

func (r ProbeResult) String() string {
	switch r {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("ProbeResult(%d)", int(r))
	}
}

// Driver performs paced, retried actions on one page.
type Driver struct {
	page         browser.Page
	logger       *slog.Logger
	rng          *rand.Rand
	minDelay     time.Duration
	maxDelay     time.Duration
	maxAttempts  int
	retryPause   time.Duration
	probeTimeout time.Duration
	sleep        func(ctx context.Context, d time.Duration) error

	// last pointer position, for interpolated moves
	x, y float64
}

// Option configures a Driver.
type Option func(*Driver)

// WithDelays sets the bounds of the random pause after each action.
func WithDelays(minDelay, maxDelay time.Duration) Option {
	return func(d *Driver) {
		d.minDelay = minDelay
		d.maxDelay = maxDelay
	}
}

// WithRetry sets the attempt budget and the pause between attempts.
func WithRetry(maxAttempts int, pause time.Duration) Option {
	return func(d *Driver) {
		d.maxAttempts = maxAttempts
		d.retryPause = pause
	}
}

// WithProbeTimeout sets how long Exists waits for an element.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.probeTimeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithSeed makes pacing and pointer paths deterministic.
func WithSeed(seed uint64) Option {
	return func(d *Driver) { d.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithSleep replaces the pause function. Tests use it to skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) { d.sleep = sleep }
}

// New creates a driver for page.
func New(page browser.Page, opts ...Option) *Driver {
	now := uint64(time.Now().UnixNano())
	d := &Driver{
		page:         page,
		logger:       slog.Default(),
		rng:          rand.New(rand.NewPCG(now, now>>1)),
		minDelay:     DefaultMinDelay,
		maxDelay:     DefaultMaxDelay,
		maxAttempts:  DefaultMaxAttempts,
		retryPause:   DefaultRetryPause,
		probeTimeout: DefaultProbeTimeout,
		sleep:        Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxAttempts < 1 {
		d.maxAttempts = 1
	}
	if d.maxDelay < d.minDelay {
		d.maxDelay = d.minDelay
	}
	return d
}

// Page returns the page the driver acts on.
func (d *Driver) Page() browser.Page {
	return d.page
}

// Sleep waits for dur or until ctx is done.
func Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pause sleeps for a random duration between the configured bounds.
func (d *Driver) Pause(ctx context.Context) error {
	return d.sleep(ctx, d.between(d.minDelay, d.maxDelay))
}

func (d *Driver) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(d.rng.Int64N(int64(hi-lo)+1))
}

func (d *Driver) intBetween(lo, hi int) int {
	return lo + d.rng.IntN(hi-lo+1)
}

// do runs fn with the retry policy, then paces.
func (d *Driver) do(ctx context.Context, action string, target string, fn func() error) error {
	if err := d.retry(ctx, action, target, fn); err != nil {
		return err
	}
	return d.Pause(ctx)
}

func (d *Driver) retry(ctx context.Context, action string, target string, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		if err := fn(); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryPause), uint64(d.maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, _ time.Duration) {
		d.logger.Debug(action+" failed, retrying", "target", target, "attempt", attempt, "error", err)
	})
	if err != nil {
		return fmt.Errorf("%s %s failed after %d attempts: %w", action, target, attempt, err)
	}
	return nil
}

// lenient logs err and reports whether the action succeeded.
func (d *Driver) lenient(action string, target string, err error) bool {
	if err != nil {
		d.logger.Error(action+" gave up", "target", target, "error", err)
		return false
	}
	return true
}

// MustHover moves the pointer over loc.
func (d *Driver) MustHover(ctx context.Context, loc browser.Locator) error {
	return d.do(ctx, "hover", loc.String(), func() error { return d.page.Hover(ctx, loc) })
}

// Hover is the lenient form of MustHover.
func (d *Driver) Hover(ctx context.Context, loc browser.Locator) bool {
	return d.lenient("hover", loc.String(), d.MustHover(ctx, loc))
}

// MustClick clicks loc.
func (d *Driver) MustClick(ctx context.Context, loc browser.Locator) error {
	return d.do(ctx, "click", loc.String(), func() error { return d.page.Click(ctx, loc) })
}

// Click is the lenient form of MustClick.
func (d *Driver) Click(ctx context.Context, loc browser.Locator) bool {
	return d.lenient("click", loc.String(), d.MustClick(ctx, loc))
}

// MustHoverAndClick hovers loc and then clicks it.
func (d *Driver) MustHoverAndClick(ctx context.Context, loc browser.Locator) error {
	if err := d.MustHover(ctx, loc); err != nil {
		return err
	}
	return d.MustClick(ctx, loc)
}

// HoverAndClick is the lenient form of MustHoverAndClick.
func (d *Driver) HoverAndClick(ctx context.Context, loc browser.Locator) bool {
	return d.lenient("hover and click", loc.String(), d.MustHoverAndClick(ctx, loc))
}

// MustFill replaces the value of the field at loc.
func (d *Driver) MustFill(ctx context.Context, loc browser.Locator, value string) error {
	return d.do(ctx, "fill", loc.String(), func() error { return d.page.Fill(ctx, loc, value) })
}

// Fill is the lenient form of MustFill.
func (d *Driver) Fill(ctx context.Context, loc browser.Locator, value string) bool {
	return d.lenient("fill", loc.String(), d.MustFill(ctx, loc, value))
}

// MustPress presses a named key, e.g. "Escape".
func (d *Driver) MustPress(ctx context.Context, key string) error {
	return d.do(ctx, "press", key, func() error { return d.page.PressKey(ctx, key) })
}

// Press is the lenient form of MustPress.
func (d *Driver) Press(ctx context.Context, key string) bool {
	return d.lenient("press", key, d.MustPress(ctx, key))
}

// MustUpload intercepts the file chooser opened by clicking trigger and supplies paths.
func (d *Driver) MustUpload(ctx context.Context, trigger browser.Locator, paths ...string) error {
	if err := d.MustHover(ctx, trigger); err != nil {
		return err
	}
	return d.do(ctx, "upload", trigger.String(), func() error {
		return d.page.UploadViaChooser(ctx, trigger, paths...)
	})
}

// Probe reports whether a visible element matches loc within timeout. A zero
// timeout checks once. Probe never returns an error.
func (d *Driver) Probe(ctx context.Context, loc browser.Locator, timeout time.Duration) ProbeResult {
	deadline := time.Now().Add(timeout)
	for {
		visible, err := d.page.IsVisible(ctx, loc)
		if err == nil && visible {
			return Present
		}
		if ctx.Err() != nil {
			return TimedOut
		}
		if !time.Now().Before(deadline) {
			if err != nil {
				d.logger.Debug("probe query failed", "target", loc.String(), "error", err)
				return TimedOut
			}
			return Absent
		}
		if Sleep(ctx, browser.DefaultPollInterval) != nil {
			return TimedOut
		}
	}
}

// Exists reports whether loc is Present within the default probe timeout.
func (d *Driver) Exists(ctx context.Context, loc browser.Locator) bool {
	return d.Probe(ctx, loc, d.probeTimeout) == Present
}
