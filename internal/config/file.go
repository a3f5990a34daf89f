package config

import "time"

// File represents the structure of the .prodcheck configuration file.
// Zero values leave the corresponding setting unchanged.
type File struct {
	// URL is the catalog endpoint.
	URL string `yaml:"url,omitempty"`

	// Timeout bounds the catalog request, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Proxy is a SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize limits the response body size in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Headers are extra request headers merged over the defaults.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Concurrency is the number of records validated at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Output is the results file of the live pass.
	Output string `yaml:"output,omitempty"`

	// SyntheticOutput is the results file of the synthetic pass.
	SyntheticOutput string `yaml:"syntheticOutput,omitempty"`

	// Markdown is the Markdown report path.
	Markdown string `yaml:"markdown,omitempty"`

	// Color enables styled console output.
	Color *bool `yaml:"color,omitempty"`

	// Database controls the run history.
	Database DatabaseFile `yaml:"database,omitempty"`

	// Monitor holds the settings of the monitor command.
	Monitor MonitorFile `yaml:"monitor,omitempty"`
}

// DatabaseFile is the database section of the configuration file.
type DatabaseFile struct {
	// Enabled turns saving runs on or off.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Dir overrides the database directory.
	Dir string `yaml:"dir,omitempty"`
}

// MonitorFile is the monitor section of the configuration file.
type MonitorFile struct {
	// Schedule is a cron expression or descriptor.
	Schedule string `yaml:"schedule,omitempty"`

	// MetricsAddr is the metrics listen address.
	MetricsAddr string `yaml:"metricsAddr,omitempty"`

	// Keep is how many runs per kind to keep in the history.
	Keep *int `yaml:"keep,omitempty"`
}

// Apply overrides the settings of cfg with the values set in the file.
func (f *File) Apply(cfg *Config) {
	if f.URL != "" {
		cfg.URL = f.URL
	}
	if f.Timeout > 0 {
		cfg.Timeout = f.Timeout
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.MaxBodySize > 0 {
		cfg.MaxBodySize = f.MaxBodySize
	}
	if len(f.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			cfg.Headers[k] = v
		}
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	if f.SyntheticOutput != "" {
		cfg.SyntheticOutput = f.SyntheticOutput
	}
	if f.Markdown != "" {
		cfg.MarkdownFile = f.Markdown
	}
	if f.Color != nil {
		cfg.Color = *f.Color
	}
	if f.Database.Enabled != nil {
		cfg.SaveToDB = *f.Database.Enabled
	}
	if f.Database.Dir != "" {
		cfg.DBDir = f.Database.Dir
	}
	if f.Monitor.Schedule != "" {
		cfg.Schedule = f.Monitor.Schedule
	}
	if f.Monitor.MetricsAddr != "" {
		cfg.MetricsAddr = f.Monitor.MetricsAddr
	}
	if f.Monitor.Keep != nil {
		cfg.KeepRuns = *f.Monitor.Keep
	}
}
