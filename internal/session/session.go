// Package session owns the browser resources of one scan workflow.
//
// A Session holds exactly one driver, browser, isolated context and page. Open
// acquires them in that order with bounded retries; Close releases them in
// reverse, attempting every step even when an earlier one fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/config"
)

var tracer = otel.Tracer("resume-scanner/session")

// OpenError is returned when a session could not be opened. Cause joins the
// error of every failed attempt of the step that gave up.
type OpenError struct {
	Message string
	Cause   error
}

func (e *OpenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("session error: %s", e.Message)
}

func (e *OpenError) Unwrap() error {
	return e.Cause
}

// IdentitySource supplies the user agent a context presents.
type IdentitySource interface {
	Get(ctx context.Context, maxAgeDays int) (string, error)
}

// Options configures how sessions are opened.
type Options struct {
	HomeURL          string
	StorageStatePath string
	Launch           browser.LaunchOptions
	Locale           string
	TimezoneID       string
	Viewport         browser.Viewport
	IdentityMaxAge   int
	MaxAttempts      int
	RetryPause       time.Duration
}

// OptionsFromSettings maps loaded settings to session options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		HomeURL:          s.Jobscan.HomeURL,
		StorageStatePath: s.Jobscan.StorageStatePath,
		Launch: browser.LaunchOptions{
			ExecPath: s.Browser.ExecPath,
			Headless: !s.Browser.ShowBrowser,
		},
		Locale:     s.Browser.Locale,
		TimezoneID: s.Browser.TimezoneID,
		Viewport: browser.Viewport{
			Width:  s.Browser.ViewportWidth,
			Height: s.Browser.ViewportHeight,
		},
		IdentityMaxAge: s.Browser.UserAgentMaxAgeDays,
		MaxAttempts:    s.Extraction.MaxAttempts,
		RetryPause:     time.Second,
	}
}

// Manager opens sessions.
type Manager struct {
	newDriver func() browser.Driver
	identity  IdentitySource
	opts      Options
	logger    *slog.Logger
}

// NewManager creates a manager. newDriver is called once per Open.
func NewManager(newDriver func() browser.Driver, identity IdentitySource, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	return &Manager{
		newDriver: newDriver,
		identity:  identity,
		opts:      opts,
		logger:    logger,
	}
}

// Session is one live driver, browser, context and page. It is owned by a
// single workflow and must not be shared.
type Session struct {
	Page browser.Page

	driver  browser.Driver
	browser browser.Browser
	context browser.BrowserContext
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open acquires every resource of a new session. On failure the resources
// already acquired are released before the error is returned.
func (m *Manager) Open(ctx context.Context) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "session.open")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open session")
		}
		span.End()
	}()

	if m.opts.HomeURL == "" {
		return nil, &OpenError{Message: "home URL is required"}
	}
	state, err := m.loadStorageState()
	if err != nil {
		return nil, &OpenError{Message: "failed to load storage state", Cause: err}
	}

	s := &Session{driver: m.newDriver(), logger: m.logger}
	fail := func(openErr *OpenError) (*Session, error) {
		if cerr := s.Close(context.WithoutCancel(ctx)); cerr != nil {
			m.logger.Warn("cleanup after failed open reported errors", "error", cerr)
		}
		return nil, openErr
	}

	ua, err := m.identity.Get(ctx, m.opts.IdentityMaxAge)
	if err != nil {
		return fail(&OpenError{Message: "failed to obtain user agent", Cause: err})
	}

	s.browser, err = retry(ctx, m, "launch browser", func() (browser.Browser, error) {
		return s.driver.Launch(ctx, m.opts.Launch)
	})
	if err != nil {
		return fail(&OpenError{Message: fmt.Sprintf("failed to launch browser after %d attempts", m.opts.MaxAttempts), Cause: err})
	}

	s.context, err = retry(ctx, m, "create browser context", func() (browser.BrowserContext, error) {
		return s.browser.NewContext(ctx, browser.ContextOptions{
			UserAgent:    ua,
			Locale:       m.opts.Locale,
			TimezoneID:   m.opts.TimezoneID,
			Viewport:     m.opts.Viewport,
			StorageState: state,
		})
	})
	if err != nil {
		return fail(&OpenError{Message: fmt.Sprintf("failed to create browser context after %d attempts", m.opts.MaxAttempts), Cause: err})
	}

	s.Page, err = s.context.NewPage(ctx)
	if err != nil {
		return fail(&OpenError{Message: "failed to open page", Cause: err})
	}

	span.SetAttributes(attribute.String("user_agent", ua))
	m.logger.Info("session opened")
	return s, nil
}

// loadStorageState reads the credential snapshot. A missing file is only a warning.
func (m *Manager) loadStorageState() (*browser.StorageState, error) {
	if m.opts.StorageStatePath == "" {
		return nil, nil
	}
	state, err := browser.LoadStorageState(m.opts.StorageStatePath)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("storage state file not found, continuing unauthenticated", "path", m.opts.StorageStatePath)
		return nil, nil
	}
	return state, err
}

// retry runs fn up to MaxAttempts times with a fixed pause and joins every attempt's error.
func retry[T any](ctx context.Context, m *Manager, what string, fn func() (T, error)) (T, error) {
	var (
		result   T
		attempts []error
		attempt  int
	)
	op := func() error {
		attempt++
		m.logger.Info(what, "attempt", attempt, "max_attempts", m.opts.MaxAttempts)
		v, err := fn()
		if err != nil {
			attempts = append(attempts, fmt.Errorf("attempt %d: %w", attempt, err))
			return err
		}
		result = v
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.opts.RetryPause), uint64(m.opts.MaxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, _ time.Duration) {
		m.logger.Warn(what+" failed", "attempt", attempt, "error", err)
	})
	if err != nil {
		if ctx.Err() != nil {
			attempts = append(attempts, ctx.Err())
		}
		return result, errors.Join(attempts...)
	}
	return result, nil
}

// Close releases page, context, browser and driver in that order. Every step is
// attempted; failures are logged one by one and returned joined. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	step := func(name string, fn func() error) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("close %s: panic: %v", name, r)
				s.logger.Warn("error during resource cleanup", "resource", name, "error", err)
				errs = append(errs, err)
			}
		}()
		if err := fn(); err != nil {
			s.logger.Warn("error during resource cleanup", "resource", name, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}

	if s.Page != nil {
		step("page", func() error { return s.Page.Close(ctx) })
	}
	if s.context != nil {
		step("context", func() error { return s.context.Close(ctx) })
	}
	if s.browser != nil {
		step("browser", func() error { return s.browser.Close(ctx) })
	}
	if s.driver != nil {
		step("driver", s.driver.Close)
	}

	return errors.Join(errs...)
}
