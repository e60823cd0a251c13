package main

import (
	"github.com/jonathan/resume-scanner/internal/config"
	"github.com/jonathan/resume-scanner/internal/telemetry"
)

// loadSettings reads the config file, fills defaults, applies the environment
// and validates the result.
func loadSettings(path string) (*config.Settings, error) {
	loaded, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	settings := loaded.MergeWithDefaults(config.Defaults())
	settings.ApplyEnv()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if verbose {
		settings.Verbose = true
	} else if settings.Verbose {
		telemetry.InitLogger(true)
	}
	return &settings, nil
}
