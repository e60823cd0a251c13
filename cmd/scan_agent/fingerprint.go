package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-scanner/internal/config"
	"github.com/jonathan/resume-scanner/internal/fingerprint"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the cached browser identity",
	Long:  "Print the user agent sessions present to the site. The value is derived from a headless Chrome and cached for the configured number of days.",
	RunE:  runFingerprint,
}

var fingerprintRefresh bool

// newDeriver builds the identity source. Tests replace it.
var newDeriver = func(settings *config.Settings) fingerprint.Deriver {
	return fingerprint.ChromeDeriver{ExecPath: settings.Browser.ExecPath}
}

func init() {
	fingerprintCmd.Flags().BoolVar(&fingerprintRefresh, "refresh", false, "Derive a new user agent even if the cached one is fresh")

	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}

	cache := fingerprint.New(settings.Browser.UserAgentCachePath, newDeriver(settings), fingerprint.WithLogger(slog.Default()))
	var ua string
	if fingerprintRefresh {
		ua, err = cache.Refresh(cmd.Context())
	} else {
		ua, err = cache.Get(cmd.Context(), settings.Browser.UserAgentMaxAgeDays)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ua)
	return nil
}
