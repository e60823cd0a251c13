package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jonathan/resume-scanner/internal/types"
)

// ErrNoDocument is returned by a Tailor that has nothing left to offer. The
// workflow treats it as a normal end of the rescan loop.
var ErrNoDocument = errors.New("no tailored document available")

// Tailor produces the next document to scan from the last report.
type Tailor interface {
	Tailor(ctx context.Context, report *types.MatchReport) (string, error)
}

// TailorFunc adapts a function to Tailor.
type TailorFunc func(ctx context.Context, report *types.MatchReport) (string, error)

func (f TailorFunc) Tailor(ctx context.Context, report *types.MatchReport) (string, error) {
	return f(ctx, report)
}

// DocumentQueue hands out documents that were tailored ahead of time, in order.
type DocumentQueue struct {
	mu     sync.Mutex
	docs   []string
	logger *slog.Logger
}

// NewDocumentQueue returns a queue over docs.
func NewDocumentQueue(logger *slog.Logger, docs ...string) *DocumentQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentQueue{docs: append([]string(nil), docs...), logger: logger}
}

// Len is the number of documents left.
func (q *DocumentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.docs)
}

// Tailor pops the next document. The report's keywords are only logged.
func (q *DocumentQueue) Tailor(ctx context.Context, report *types.MatchReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q.mu.Lock()
	if len(q.docs) == 0 {
		q.mu.Unlock()
		return "", ErrNoDocument
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	q.mu.Unlock()

	if _, err := os.Stat(doc); err != nil {
		return "", fmt.Errorf("tailored document %s: %w", doc, err)
	}

	keywords := report.KeywordsToPrompt()
	q.logger.Info("using pre-tailored document",
		"path", doc,
		"iteration", report.NextIteration(),
		"hard_keywords", len(keywords[types.SkillTypeHard]),
		"soft_keywords", len(keywords[types.SkillTypeSoft]))
	return doc, nil
}
