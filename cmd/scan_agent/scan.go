package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/browser"
	"github.com/jonathan/resume-scanner/internal/config"
	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/fingerprint"
	"github.com/jonathan/resume-scanner/internal/interaction"
	"github.com/jonathan/resume-scanner/internal/jobscan"
	"github.com/jonathan/resume-scanner/internal/observability"
	"github.com/jonathan/resume-scanner/internal/parsing"
	"github.com/jonathan/resume-scanner/internal/session"
	"github.com/jonathan/resume-scanner/internal/store"
	"github.com/jonathan/resume-scanner/internal/telemetry"
	"github.com/jonathan/resume-scanner/internal/types"
	"github.com/jonathan/resume-scanner/internal/workflow"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a resume against a job posting and extract the match report",
	Long: `Opens a browser session, uploads the resume with the job description, waits for the
match report and extracts it. Each --rescan-with document is scanned in the same session
until the target score or the iteration cap is reached.

Reports are written under the configured output directory and, when DATABASE_URL is set,
stored in PostgreSQL.`,
	RunE: runScan,
}

var (
	scanJobPath       string
	scanResumePath    string
	scanRescanWith    []string
	scanMaxIterations int
	scanTargetScore   int
	scanOutputDir     string
	scanNoDB          bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanJobPath, "job", "j", "", "Path to job target JSON (required)")
	scanCmd.Flags().StringVarP(&scanResumePath, "resume", "r", "", "Path to the resume document to scan (required)")
	scanCmd.Flags().StringArrayVar(&scanRescanWith, "rescan-with", nil, "Tailored document to rescan with; repeat for more iterations")
	scanCmd.Flags().IntVar(&scanMaxIterations, "max-iterations", 0, "Maximum number of scans (default: one per document)")
	scanCmd.Flags().IntVar(&scanTargetScore, "target-score", 0, "Stop rescanning once the score reaches this value (0 disables)")
	scanCmd.Flags().StringVarP(&scanOutputDir, "out", "o", "", "Output directory for match reports (overrides config)")
	scanCmd.Flags().BoolVar(&scanNoDB, "no-db", false, "Do not persist to the database even when DATABASE_URL is set")

	_ = scanCmd.MarkFlagRequired("job")
	_ = scanCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanTargetScore < 0 || scanTargetScore > 100 {
		return fmt.Errorf("--target-score must be between 0 and 100")
	}
	if scanMaxIterations < 0 {
		return fmt.Errorf("--max-iterations must not be negative")
	}
	for _, doc := range append([]string{scanResumePath}, scanRescanWith...) {
		if _, err := os.Stat(doc); err != nil {
			return fmt.Errorf("document not found: %s", doc)
		}
	}

	job, err := parsing.LoadJobTarget(scanJobPath)
	if err != nil {
		return err
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if scanOutputDir != "" {
		settings.OutputDir = scanOutputDir
	}

	ctx := cmd.Context()
	logger := slog.Default()

	tel, err := telemetry.Setup(ctx, "resume-scanner", settings.Telemetry)
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	} else {
		defer func() {
			if err := tel.Shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	maxIterations := scanMaxIterations
	if maxIterations == 0 {
		maxIterations = len(scanRescanWith) + 1
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintJobTarget(job)

	var database *db.DB
	if settings.DatabaseURL != "" && !scanNoDB {
		database, err = db.Connect(ctx, settings.DatabaseURL)
		if err != nil {
			logger.Warn("failed to connect to database, continuing without database persistence", "error", err)
			database = nil
		} else {
			defer database.Close()
		}
	}

	opts := newWorkflowOptions(ctx, settings, database, *job, scanResumePath, scanRescanWith, logger)
	opts.MaxIterations = maxIterations
	opts.TargetScore = scanTargetScore
	opts.OnProgress = func(e workflow.ProgressEvent) {
		if report, ok := e.Content.(*types.MatchReport); ok {
			printer.PrintIteration(report.Iteration, maxIterations)
			printer.PrintReport(report)
		}
	}
	if opts.Recorder != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n", opts.Recorder.RunID())
	}

	result, err := workflow.Run(ctx, newSessionManager(settings, logger), opts)
	if result != nil {
		for _, saved := range result.Saved {
			for _, s := range saved {
				if s.Err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved (%s): %s\n", s.Writer, s.Location)
				}
			}
		}
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	final := result.Final()
	fmt.Fprintf(cmd.OutOrStdout(), "\nDone after %d scan(s): final score %s (%s)\n",
		len(result.Reports), observability.ScoreString(final.Score), result.StopReason)
	return nil
}

// newWorkflowOptions builds the options shared by scan and serve: site
// contract, pacing, file output and, when database is non-nil, a recorded run
// whose reports are also stored in PostgreSQL.
func newWorkflowOptions(ctx context.Context, settings *config.Settings, database *db.DB, job types.JobTarget,
	resume string, rescanWith []string, logger *slog.Logger) workflow.Options {
	opts := workflow.Options{
		DocumentPath: resume,
		Job:          job,
		Site:         jobscan.OptionsFromSettings(settings),
		Interaction: []interaction.Option{
			interaction.WithDelays(settings.Browser.MinDelayDuration(), settings.Browser.MaxDelayDuration()),
		},
		Writers: []store.Writer{store.NewFile(settings.OutputDir)},
		Logger:  logger,
	}
	if len(rescanWith) > 0 {
		opts.Tailor = workflow.NewDocumentQueue(logger, rescanWith...)
	}
	if database == nil {
		return opts
	}
	rec, err := workflow.NewDBRecorder(ctx, database, db.RunInput{
		Company:      job.Company,
		JobTitle:     job.Title,
		JobURL:       job.URL,
		DocumentPath: resume,
	}, logger)
	if err != nil {
		logger.Warn("failed to create database run", "error", err)
		return opts
	}
	opts.Recorder = rec
	opts.Writers = append(opts.Writers, db.NewReportWriter(database, rec.ID()))
	return opts
}

// newSessionManager wires the Chrome driver and the cached identity.
func newSessionManager(settings *config.Settings, logger *slog.Logger) *session.Manager {
	identity := fingerprint.New(settings.Browser.UserAgentCachePath, newDeriver(settings), fingerprint.WithLogger(logger))
	return session.NewManager(
		func() browser.Driver { return browser.NewChromeDriver() },
		identity,
		session.OptionsFromSettings(settings),
		logger,
	)
}
