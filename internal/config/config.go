// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/titanous/json5"

	"github.com/jonathan/resume-scanner/internal/telemetry"
)

// Settings is the scanner configuration. It is loaded once per run and passed
// down explicitly; nothing in the repo reads it from a package-level variable.
type Settings struct {
	Jobscan    JobscanSettings    `json:"jobscan"`
	Browser    BrowserSettings    `json:"browser"`
	Resume     ResumeSettings     `json:"resume"`
	Extraction ExtractionSettings `json:"extraction"`
	Server     ServerSettings     `json:"server"`
	Telemetry  telemetry.Config   `json:"telemetry"`

	OutputDir   string `json:"output_dir,omitempty"`   // Root directory for persisted reports
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// JobscanSettings is the target-site URL contract.
type JobscanSettings struct {
	HomeURL               string `json:"home_url" validate:"required,url"`
	MatchReportURLPattern string `json:"match_report_url_pattern" validate:"required"`
	StorageStatePath      string `json:"storage_state_path,omitempty"`
}

// BrowserSettings configures the browser session and the human-paced input layer.
// Delays are in seconds.
type BrowserSettings struct {
	ExecPath            string  `json:"exec_path,omitempty"`
	ShowBrowser         bool    `json:"show_browser,omitempty"`
	UserAgentCachePath  string  `json:"user_agent_cache_path,omitempty"`
	UserAgentMaxAgeDays int     `json:"max_age_days,omitempty" validate:"gte=0"`
	Locale              string  `json:"locale,omitempty"`
	TimezoneID          string  `json:"timezone_id,omitempty"`
	ViewportWidth       int     `json:"viewport_width,omitempty" validate:"gte=0"`
	ViewportHeight      int     `json:"viewport_height,omitempty" validate:"gte=0"`
	MinDelay            float64 `json:"min_delay,omitempty" validate:"gte=0"`
	MaxDelay            float64 `json:"max_delay,omitempty" validate:"gte=0"`
}

// ResumeSettings holds the skill whitelists used to classify support.
type ResumeSettings struct {
	WhitelistedHardSkills []string `json:"whitelisted_hard_skills,omitempty"`
	WhitelistedSoftSkills []string `json:"whitelisted_soft_skills,omitempty"`
}

// ExtractionSettings bounds the report-page waits. Values are in seconds.
type ExtractionSettings struct {
	ScorePollInterval float64 `json:"score_poll_interval,omitempty" validate:"gte=0"`
	StabilityTimeout  float64 `json:"stability_timeout,omitempty" validate:"gte=0"`
	ResultTimeout     float64 `json:"result_timeout,omitempty" validate:"gte=0"`
	MaxAttempts       int     `json:"max_attempts,omitempty" validate:"gte=0"`
}

// ServerSettings configures the local scan API started by "serve".
type ServerSettings struct {
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`
	// ScansPerHour caps scan requests per client. Zero disables the limit.
	ScansPerHour int `json:"scans_per_hour,omitempty" validate:"gte=0"`
	ScanBurst    int `json:"scan_burst,omitempty" validate:"gte=0"`
}

// Defaults returns the settings used for any value a config file leaves unset.
func Defaults() Settings {
	return Settings{
		Browser: BrowserSettings{
			UserAgentCachePath:  filepath.Join(".cache", "user_agent.json"),
			UserAgentMaxAgeDays: 7,
			Locale:              "en-US",
			TimezoneID:          "UTC",
			ViewportWidth:       1920,
			ViewportHeight:      1080,
			MinDelay:            0.4,
			MaxDelay:            1.2,
		},
		Extraction: ExtractionSettings{
			ScorePollInterval: 1,
			StabilityTimeout:  15,
			ResultTimeout:     15,
			MaxAttempts:       3,
		},
		Server: ServerSettings{
			Port:         8080,
			ScansPerHour: 6,
			ScanBurst:    2,
		},
		OutputDir: "output",
	}
}

// LoadConfig loads settings from a JSON or JSON5 file.
// A sibling "<name>.local.<ext>" file, when present, overrides the values of the main file.
func LoadConfig(path string) (*Settings, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Settings
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	localPath := localOverridePath(path)
	localData, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", localPath, err)
	}
	if len(localData) > 0 {
		var override Settings
		if err := json5.Unmarshal(localData, &override); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON %s: %w", localPath, err)
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge local config: %w", err)
		}
		slog.Debug("merged config with local overrides", "local", localPath)
	}

	return &cfg, nil
}

func localOverridePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// Validate checks that the configuration has valid values.
// Struct tags cover required fields and ranges; the result URL pattern must compile.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := regexp.Compile(s.Jobscan.MatchReportURLPattern); err != nil {
		return fmt.Errorf("config error: invalid 'match_report_url_pattern': %w", err)
	}
	if s.Browser.MaxDelay < s.Browser.MinDelay {
		return fmt.Errorf("config error: 'max_delay' must not be less than 'min_delay'")
	}
	if s.Jobscan.StorageStatePath != "" {
		if _, err := os.Stat(s.Jobscan.StorageStatePath); os.IsNotExist(err) {
			slog.Warn("storage state file not found, continuing without it", "path", s.Jobscan.StorageStatePath)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Settings with zero fields filled from defaults.
func (s *Settings) MergeWithDefaults(defaults Settings) Settings {
	result := *s

	// Bool fields all default to false, so merging them is a no-op
	if err := mergo.Merge(&result, defaults); err != nil {
		slog.Warn("failed to merge config defaults", "error", err)
	}

	return result
}

// ApplyEnv overrides settings from environment variables.
// DATABASE_URL and CHROME_PATH win over file values when set; the OTLP
// endpoint only fills exporters the file leaves empty.
func (s *Settings) ApplyEnv() {
	s.Telemetry = s.Telemetry.WithEnv()
	if v := os.Getenv("DATABASE_URL"); v != "" {
		s.DatabaseURL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		s.Browser.ExecPath = v
	}
}

// MatchReportURL compiles the result URL pattern. Validate must have succeeded.
func (s *Settings) MatchReportURL() *regexp.Regexp {
	return regexp.MustCompile(s.Jobscan.MatchReportURLPattern)
}

// MinDelayDuration returns the lower pacing bound.
func (b BrowserSettings) MinDelayDuration() time.Duration {
	return seconds(b.MinDelay)
}

// MaxDelayDuration returns the upper pacing bound.
func (b BrowserSettings) MaxDelayDuration() time.Duration {
	return seconds(b.MaxDelay)
}

// PollInterval returns the score polling interval.
func (e ExtractionSettings) PollInterval() time.Duration {
	return seconds(e.ScorePollInterval)
}

// Stability returns the upper bound on waiting for a stable score.
func (e ExtractionSettings) Stability() time.Duration {
	return seconds(e.StabilityTimeout)
}

// Result returns the upper bound on waiting for the result page.
func (e ExtractionSettings) Result() time.Duration {
	return seconds(e.ResultTimeout)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
