// Package store persists finished match reports.
package store

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-scanner/internal/types"
)

// Writer persists one report and returns where it went.
type Writer interface {
	Name() string
	Save(ctx context.Context, report *types.MatchReport) (string, error)
}

// Saved is the outcome of one writer.
type Saved struct {
	Writer   string
	Location string
	Err      error
}

// Multi fans a report out to several writers concurrently. Persistence is
// best-effort: a failing writer is logged and does not affect the others.
type Multi struct {
	writers []Writer
	timeout time.Duration
	logger  *slog.Logger
}

// NewMulti returns a Multi over writers. A nil logger means slog.Default().
func NewMulti(logger *slog.Logger, writers ...Writer) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{writers: writers, timeout: 30 * time.Second, logger: logger}
}

// Save runs every writer and reports each outcome in writer order.
func (m *Multi) Save(ctx context.Context, report *types.MatchReport) []Saved {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results := make([]Saved, len(m.writers))
	var g errgroup.Group
	for i, w := range m.writers {
		g.Go(func() error {
			location, err := w.Save(ctx, report)
			results[i] = Saved{Writer: w.Name(), Location: location, Err: err}
			if err != nil {
				m.logger.Warn("failed to persist match report", "writer", w.Name(), "iteration", report.Iteration, "error", err)
				return nil
			}
			m.logger.Info("match report persisted", "writer", w.Name(), "location", location)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
