// Package fingerprint caches the browser identity string (user agent) the scanner presents.
// Deriving one means starting a throwaway browser, so the value is kept on disk with a TTL.
package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("resume-scanner/fingerprint")

// DefaultMaxAttempts is how many times derivation is tried before giving up.
const DefaultMaxAttempts = 3

// DefaultRetryPause is the fixed pause between derivation attempts.
const DefaultRetryPause = time.Second

// ErrEmptyIdentity is returned by a deriver that produced a blank string.
var ErrEmptyIdentity = errors.New("empty user agent")

// DeriveError is returned when no identity could be derived within the attempt budget.
type DeriveError struct {
	Message string
	Cause   error
}

func (e *DeriveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fingerprint error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fingerprint error: %s", e.Message)
}

func (e *DeriveError) Unwrap() error {
	return e.Cause
}

// Deriver produces a fresh identity string.
type Deriver interface {
	Derive(ctx context.Context) (string, error)
}

// DeriverFunc adapts a function to Deriver.
type DeriverFunc func(ctx context.Context) (string, error)

// Derive calls f.
func (f DeriverFunc) Derive(ctx context.Context) (string, error) {
	return f(ctx)
}

// record is the on-disk cache layout.
type record struct {
	UserAgent   *string `json:"user_agent"`
	GeneratedAt *string `json:"generated_at"`
}

// Cache stores one identity string in a JSON file.
type Cache struct {
	path        string
	deriver     Deriver
	now         func() time.Time
	logger      *slog.Logger
	maxAttempts int
	pause       time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithRetry sets the derivation attempt budget and the pause between attempts.
func WithRetry(maxAttempts int, pause time.Duration) Option {
	return func(c *Cache) {
		c.maxAttempts = maxAttempts
		c.pause = pause
	}
}

// New creates a cache backed by the file at path.
func New(path string, deriver Deriver, opts ...Option) *Cache {
	c := &Cache{
		path:        path,
		deriver:     deriver,
		now:         time.Now,
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		pause:       DefaultRetryPause,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// Get returns the cached identity when it is younger than maxAgeDays, and
// otherwise derives, stores and returns a fresh one.
func (c *Cache) Get(ctx context.Context, maxAgeDays int) (string, error) {
	ctx, span := tracer.Start(ctx, "fingerprint.get")
	defer span.End()

	if ua, ok := c.Load(maxAgeDays); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return ua, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	ua, err := c.Refresh(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to derive user agent")
		return "", err
	}
	return ua, nil
}

// Load reads the cache file. Any problem with it (missing, unreadable, corrupt,
// missing keys, bad timestamp, expired) is a miss.
func (c *Cache) Load(maxAgeDays int) (string, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("could not read user agent cache", "path", c.path, "error", err)
		}
		return "", false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("invalid json in user agent cache", "path", c.path, "error", err)
		return "", false
	}
	if rec.UserAgent == nil || rec.GeneratedAt == nil || strings.TrimSpace(*rec.UserAgent) == "" {
		c.logger.Warn("user agent cache is missing required fields", "path", c.path)
		return "", false
	}

	generatedAt, err := time.Parse(time.RFC3339, *rec.GeneratedAt)
	if err != nil {
		c.logger.Warn("invalid timestamp in user agent cache", "path", c.path, "error", err)
		return "", false
	}

	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	if c.now().Sub(generatedAt) > maxAge {
		c.logger.Info("cached user agent expired", "generated_at", generatedAt)
		return "", false
	}

	c.logger.Debug("using cached user agent", "generated_at", generatedAt)
	return *rec.UserAgent, true
}

// Refresh derives a new identity and stores it. A failed store is logged, not returned.
func (c *Cache) Refresh(ctx context.Context) (string, error) {
	var ua string
	attempt := 0
	op := func() error {
		attempt++
		c.logger.Info("deriving user agent", "attempt", attempt, "max_attempts", c.maxAttempts)
		derived, err := c.deriver.Derive(ctx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(derived) == "" {
			return ErrEmptyIdentity
		}
		ua = derived
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pause), uint64(c.maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		c.logger.Warn("user agent derivation failed", "attempt", attempt, "error", err, "retry_in", next)
	})
	if err != nil {
		return "", &DeriveError{
			Message: fmt.Sprintf("failed to derive user agent after %d attempts", attempt),
			Cause:   err,
		}
	}

	if err := c.Store(ua); err != nil {
		c.logger.Warn("failed to cache user agent", "path", c.path, "error", err)
	}
	return ua, nil
}

// Store writes ua with the current time as its generation time.
func (c *Cache) Store(ua string) error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	generatedAt := c.now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(record{UserAgent: &ua, GeneratedAt: &generatedAt}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user agent cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write user agent cache: %w", err)
	}
	return nil
}
