package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/config"
	"github.com/jonathan/resume-scanner/internal/db"
	"github.com/jonathan/resume-scanner/internal/server"
	"github.com/jonathan/resume-scanner/internal/server/ratelimit"
	"github.com/jonathan/resume-scanner/internal/telemetry"
	"github.com/jonathan/resume-scanner/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local scan API",
	Long: `Serves POST /scans, which runs a scan and streams its progress as Server-Sent Events,
and read access to recorded runs under /runs when DATABASE_URL is set.

Only one scan runs at a time; the browser session is not shared.`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort < 0 || servePort > 65535 {
		return fmt.Errorf("--port must be between 0 and 65535")
	}
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		settings.Server.Port = servePort
	}

	ctx := cmd.Context()
	logger := slog.Default()

	tel, err := telemetry.Setup(ctx, "resume-scanner", settings.Telemetry)
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	} else {
		defer func() {
			if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	cfg := server.Config{
		Port:       settings.Server.Port,
		RateLimits: ratelimit.ScanRules(settings.Server.ScansPerHour, settings.Server.ScanBurst),
		Logger:     logger,
	}

	var database *db.DB
	if settings.DatabaseURL != "" {
		database, err = db.Connect(ctx, settings.DatabaseURL)
		if err != nil {
			logger.Warn("failed to connect to database, run history disabled", "error", err)
			database = nil
		} else {
			defer database.Close()
			cfg.Store = database
		}
	}
	cfg.Scanner = newScanner(settings, database, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on :%d\n", settings.Server.Port)
	return server.New(cfg).Start(ctx)
}

// newScanner runs each request through the same workflow as the scan command.
func newScanner(settings *config.Settings, database *db.DB, logger *slog.Logger) server.Scanner {
	manager := newSessionManager(settings, logger)
	return server.ScannerFunc(func(ctx context.Context, scan server.Scan, onProgress workflow.ProgressCallback) (*workflow.Result, error) {
		opts := newWorkflowOptions(ctx, settings, database, scan.Job, scan.Resume, scan.RescanWith, logger)
		opts.MaxIterations = scan.MaxIterations
		opts.TargetScore = scan.TargetScore
		opts.OnProgress = onProgress
		return workflow.Run(ctx, manager, opts)
	})
}
