// Package jobscan drives the résumé scoring site: it submits scans, reads the
// rendered match report into a types.MatchReport, corrects fixable job details in
// place and triggers rescans within the same browser session.
//
// All UI work goes through an interaction.Driver. Every wait is bounded and an
// expired wait is a *TimeoutError; nothing about an unseen state is guessed.
package jobscan

import (
	"log/slog"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/jonathan/resume-scanner/internal/config"
	"github.com/jonathan/resume-scanner/internal/parsing"
)

var tracer = otel.Tracer("resume-scanner/jobscan")

// Fixed bounds for short UI transitions.
const (
	scanEnableTimeout  = 2 * time.Second
	overlayShowTimeout = 3 * time.Second
	modalHideTimeout   = 2 * time.Second
	modalShowTimeout   = 3 * time.Second
)

// Options configures the site driver.
type Options struct {
	HomeURL   string
	ResultURL *regexp.Regexp

	// Whitelists of skills the candidate can claim without the résumé showing them.
	HardWhitelist []string
	SoftWhitelist []string

	ScorePollInterval time.Duration
	StabilityTimeout  time.Duration
	ResultTimeout     time.Duration
	// InfoModalTimeout is how long to look for the informational modal before extraction.
	InfoModalTimeout time.Duration
	// NavigationAttempts bounds Dashboard.Open; NavigationPause separates attempts.
	NavigationAttempts int
	NavigationPause    time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultOptions returns options with the standard timings and no site URLs.
func DefaultOptions() Options {
	return Options{
		ScorePollInterval:  time.Second,
		StabilityTimeout:   15 * time.Second,
		ResultTimeout:      15 * time.Second,
		InfoModalTimeout:   5 * time.Second,
		NavigationAttempts: 3,
		NavigationPause:    time.Second,
		Now:                time.Now,
		Logger:             slog.Default(),
	}
}

// OptionsFromSettings maps loaded settings to site options.
func OptionsFromSettings(s *config.Settings) Options {
	opts := DefaultOptions()
	opts.HomeURL = s.Jobscan.HomeURL
	opts.ResultURL = s.MatchReportURL()
	opts.HardWhitelist = parsing.ExpandWhitelist(s.Resume.WhitelistedHardSkills)
	opts.SoftWhitelist = parsing.ExpandWhitelist(s.Resume.WhitelistedSoftSkills)
	opts.ScorePollInterval = s.Extraction.PollInterval()
	opts.StabilityTimeout = s.Extraction.Stability()
	opts.ResultTimeout = s.Extraction.Result()
	if s.Extraction.MaxAttempts > 0 {
		opts.NavigationAttempts = s.Extraction.MaxAttempts
	}
	return opts
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ScorePollInterval <= 0 {
		o.ScorePollInterval = d.ScorePollInterval
	}
	if o.StabilityTimeout <= 0 {
		o.StabilityTimeout = d.StabilityTimeout
	}
	if o.ResultTimeout <= 0 {
		o.ResultTimeout = d.ResultTimeout
	}
	if o.InfoModalTimeout < 0 {
		o.InfoModalTimeout = 0
	}
	if o.NavigationAttempts < 1 {
		o.NavigationAttempts = d.NavigationAttempts
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}
