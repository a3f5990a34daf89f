package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/prodcheck/internal/fetcher"
	"github.com/nao1215/prodcheck/internal/report"
	"github.com/robfig/cron/v3"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "prodcheck"

	// DefaultURL is the catalog endpoint checked when none is configured.
	DefaultURL = fetcher.DefaultURL

	// DefaultTimeout bounds the catalog request.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultUserAgent identifies prodcheck in catalog requests.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultMaxBodySize limits the response body read from the catalog.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultConcurrency validates records one at a time.
	DefaultConcurrency = 1

	// DefaultSchedule runs the monitor once an hour.
	DefaultSchedule = "@every 1h"

	// DefaultMetricsAddr is where the monitor serves Prometheus metrics.
	DefaultMetricsAddr = ":9464"

	// DefaultKeepRuns is how many runs per kind the monitor keeps in the
	// history database. Zero keeps every run.
	DefaultKeepRuns = 500
)

// Config holds all configuration options for prodcheck.
// It is populated from defaults, the configuration file and CLI flags, and
// passed to the commands rather than kept in global state.
type Config struct {
	// URL is the catalog endpoint of the live pass.
	URL string

	// Timeout bounds the catalog request.
	Timeout time.Duration

	// ProxyAddress routes the catalog request through a SOCKS5 proxy
	// ("host:port"). Empty means a direct connection.
	ProxyAddress string

	// UserAgent is the User-Agent header sent to the catalog.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Headers are extra request headers, for example an API key.
	Headers map[string]string

	// Concurrency is the number of records validated at once.
	Concurrency int

	// Output is the results file of the live pass.
	Output string

	// SyntheticOutput is the results file of the synthetic pass.
	SyntheticOutput string

	// MarkdownFile receives a Markdown report of each pass when set.
	// The pass kind is inserted before the extension.
	MarkdownFile string

	// SkipLive disables the live pass.
	SkipLive bool

	// SkipSynthetic disables the synthetic pass.
	SkipSynthetic bool

	// Color enables styled console output.
	Color bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the configuration file given on the command line.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// DBDir is the directory of the run history database.
	// Defaults to the XDG data directory (~/.local/share/prodcheck on Linux).
	DBDir string

	// SaveToDB stores every completed run in the history database.
	SaveToDB bool

	// Schedule is the cron expression of the monitor command.
	Schedule string

	// MetricsAddr is the listen address of the monitor's metrics endpoint.
	// Empty disables the endpoint.
	MetricsAddr string

	// KeepRuns is how many runs per kind the monitor keeps. Zero keeps all.
	KeepRuns int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		Headers:         make(map[string]string),
		Concurrency:     DefaultConcurrency,
		Output:          report.DefaultLiveOutput,
		SyntheticOutput: report.DefaultSyntheticOutput,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
		Schedule:        DefaultSchedule,
		MetricsAddr:     DefaultMetricsAddr,
		KeepRuns:        DefaultKeepRuns,
	}
}

// XDGDataDir returns the XDG data directory for prodcheck.
// On Linux: ~/.local/share/prodcheck
// On macOS: ~/Library/Application Support/prodcheck
// On Windows: %LOCALAPPDATA%\prodcheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for prodcheck.
// On Linux: ~/.config/prodcheck
// On macOS: ~/Library/Application Support/prodcheck
// On Windows: %APPDATA%\prodcheck
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings used by the check command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.SkipLive && c.SkipSynthetic {
		return ErrNothingToRun
	}

	if !c.SkipLive && !isHTTPURL(c.URL) {
		return ErrInvalidURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if !c.SkipLive && c.Output == "" {
		return ErrNoOutput
	}
	if !c.SkipSynthetic && c.SyntheticOutput == "" {
		return ErrNoOutput
	}

	// Both passes writing one file would lose the live results.
	if !c.SkipLive && !c.SkipSynthetic && filepath.Clean(c.Output) == filepath.Clean(c.SyntheticOutput) {
		return ErrSameOutput
	}

	return nil
}

// ValidateMonitor checks the settings used by the monitor command.
// The monitor only runs the live pass, so output conflicts are ignored.
func (c *Config) ValidateMonitor() error {
	if !isHTTPURL(c.URL) {
		return ErrInvalidURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return ErrInvalidSchedule
	}

	if c.KeepRuns < 0 {
		return ErrInvalidKeepRuns
	}

	return nil
}

// isHTTPURL reports whether raw is an absolute http or https URL.
func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
