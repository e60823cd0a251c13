// Package workflow runs one scan end to end: open a session, scan a document,
// extract and persist the report, then tailor and rescan until a stop
// condition holds. The session is always closed on the way out.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/jobscan"
	"github.com/jonathan/resume-scanner/internal/session"
	"github.com/jonathan/resume-scanner/internal/store"
	"github.com/jonathan/resume-scanner/internal/types"
)

var tracer = otel.Tracer("resume-scanner/workflow")

// DefaultMaxIterations bounds the rescan loop when Options leaves it unset.
const DefaultMaxIterations = 5

// Progress categories.
const (
	CategorySession = "session"
	CategoryScan    = "scan"
	CategoryReport  = "report"
)

// StopReason says why the rescan loop ended.
type StopReason string

const (
	StopTargetScore   StopReason = "target_score"
	StopMaxIterations StopReason = "max_iterations"
	StopNoTailor      StopReason = "no_tailor"
	StopNoDocument    StopReason = "no_document"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// Opener opens browser sessions. *session.Manager satisfies it.
type Opener interface {
	Open(ctx context.Context) (*session.Session, error)
}

// Options holds configuration for one run
type Options struct {
	DocumentPath string
	Job          types.JobTarget

	// Tailor supplies documents for rescans. Nil means a single scan.
	Tailor        Tailor
	MaxIterations int
	// TargetScore ends the loop once reached. Zero disables it.
	TargetScore int

	Site        jobscan.Options
	Interaction []interaction.Option
	Writers     []store.Writer
	Recorder    Recorder
	OnProgress  ProgressCallback
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxIterations < 1 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Site.Logger == nil {
		o.Site.Logger = o.Logger
	}
	return o
}

// Result holds every report of a run in iteration order.
type Result struct {
	Reports    []*types.MatchReport
	Saved      [][]store.Saved
	StopReason StopReason
}

// Final is the last extracted report, or nil when none was.
func (r *Result) Final() *types.MatchReport {
	if len(r.Reports) == 0 {
		return nil
	}
	return r.Reports[len(r.Reports)-1]
}

type runner struct {
	opts Options
	rec  Recorder
	log  *slog.Logger
}

func (r *runner) emit(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.rec.RunID(),
			Content:  content,
		})
	}
}

// step runs fn as a recorded step.
func (r *runner) step(ctx context.Context, name string, fn func() error) error {
	r.rec.StartStep(ctx, name)
	err := fn()
	r.rec.FinishStep(ctx, name, err)
	if err != nil {
		r.log.Error("step failed", "step", name, "error", err)
	}
	return err
}

// Run executes the workflow. On error the returned Result still holds the
// reports extracted before the failure.
func Run(ctx context.Context, opener Opener, opts Options) (_ *Result, err error) {
	opts = opts.withDefaults()
	if opts.DocumentPath == "" {
		return nil, errors.New("document path is required")
	}
	if err := opts.Job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job target: %w", err)
	}

	ctx, span := tracer.Start(ctx, "workflow.run")
	span.SetAttributes(
		attribute.String("company", opts.Job.Company),
		attribute.String("job_title", opts.Job.Title),
	)
	r := &runner{opts: opts, rec: opts.Recorder, log: opts.Logger}
	result := &Result{}
	defer func() {
		status := db.RunStatusCompleted
		if err != nil {
			status = db.RunStatusFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
		}
		r.rec.Complete(context.WithoutCancel(ctx), status)
		span.End()
	}()

	var sess *session.Session
	err = r.step(ctx, db.StepOpenSession, func() error {
		var err error
		sess, err = opener.Open(ctx)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil {
			r.log.Warn("session closed with errors", "error", cerr)
		}
	}()
	r.emit(db.StepOpenSession, CategorySession, "Browser session opened", nil)

	driver := interaction.New(sess.Page, append([]interaction.Option{interaction.WithLogger(r.log)}, opts.Interaction...)...)
	dashboard := jobscan.NewDashboard(driver, opts.Site)
	if err := r.step(ctx, db.StepDashboard, func() error { return dashboard.Open(ctx) }); err != nil {
		return result, err
	}
	r.emit(db.StepDashboard, CategorySession, "Dashboard loaded", nil)

	var page *jobscan.ReportPage
	err = r.step(ctx, db.StepScan, func() error {
		var err error
		page, err = dashboard.Scan(ctx, opts.DocumentPath, opts.Job)
		return err
	})
	if err != nil {
		return result, err
	}
	r.emit(db.StepScan, CategoryScan, fmt.Sprintf("Scanned %s", opts.DocumentPath), nil)

	sink := store.NewMulti(r.log, opts.Writers...)
	for {
		iteration := page.Iteration()

		var report *types.MatchReport
		extract := db.StepName(db.StepExtract, iteration)
		err := r.step(ctx, extract, func() error {
			var err error
			report, err = page.Extract(ctx)
			return err
		})
		if err != nil {
			return result, err
		}
		result.Reports = append(result.Reports, report)
		r.emit(extract, CategoryReport, fmt.Sprintf("Match report #%d scored %d", iteration, report.Score), report)

		persist := db.StepName(db.StepPersist, iteration)
		r.rec.StartStep(ctx, persist)
		saved := sink.Save(ctx, report)
		result.Saved = append(result.Saved, saved)
		r.rec.FinishStep(ctx, persist, joinSaveErrors(saved))

		if reason, done := r.shouldStop(report, iteration); done {
			result.StopReason = reason
			r.log.Info("scan loop finished", "reason", reason, "iterations", iteration, "score", report.Score)
			break
		}

		var doc string
		exhausted := false
		tailor := db.StepName(db.StepTailor, iteration+1)
		err = r.step(ctx, tailor, func() error {
			var err error
			doc, err = opts.Tailor.Tailor(ctx, report)
			if errors.Is(err, ErrNoDocument) {
				exhausted = true
				return nil
			}
			return err
		})
		if err != nil {
			return result, fmt.Errorf("failed to tailor document: %w", err)
		}
		if exhausted {
			result.StopReason = StopNoDocument
			r.log.Info("no more documents to scan", "iterations", iteration)
			break
		}

		rescan := db.StepName(db.StepRescan, iteration+1)
		err = r.step(ctx, rescan, func() error {
			next, err := page.Rescan(ctx, doc, opts.Job)
			if err != nil {
				return err
			}
			page = next
			return nil
		})
		if err != nil {
			return result, err
		}
		r.emit(rescan, CategoryScan, fmt.Sprintf("Rescanned %s", doc), nil)
	}

	span.SetAttributes(attribute.Int("iterations", len(result.Reports)))
	return result, nil
}

func (r *runner) shouldStop(report *types.MatchReport, iteration int) (StopReason, bool) {
	switch {
	case r.opts.TargetScore > 0 && report.Score >= r.opts.TargetScore:
		return StopTargetScore, true
	case iteration >= r.opts.MaxIterations:
		return StopMaxIterations, true
	case r.opts.Tailor == nil:
		return StopNoTailor, true
	}
	return "", false
}

// joinSaveErrors keeps a failed sink visible in the step record without failing the run.
func joinSaveErrors(saved []store.Saved) error {
	var errs []error
	for _, s := range saved {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Writer, s.Err))
		}
	}
	return errors.Join(errs...)
}
