// Package config loads and validates scanner configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/WakiJi/wmscan/internal/scan"
)

// Config captures all scanner configuration knobs loaded via Viper.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScanConfig defines the date/time grid and run-level behavior.
type ScanConfig struct {
	Base           string `mapstructure:"base"`
	StartDate      string `mapstructure:"start_date"`
	EndDate        string `mapstructure:"end_date"`
	StartTime      string `mapstructure:"start_time"`
	EndTime        string `mapstructure:"end_time"`
	Workers        int    `mapstructure:"workers"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	ResumeFile     string `mapstructure:"resume_file"`
	OutputFile     string `mapstructure:"output_file"`
}

// HTTPConfig configures per-probe HTTP behavior.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	PacingMs         int     `mapstructure:"pacing_ms"`
	MaxRPS           float64 `mapstructure:"max_rps"`
	UserAgent        string  `mapstructure:"user_agent"`
}

// EndpointConfig names the probed host and path prefix. Both usually arrive
// via the WM_DOMAIN and WM_PATH environment variables.
type EndpointConfig struct {
	Domain string `mapstructure:"domain"`
	Path   string `mapstructure:"path"`
}

// ServerConfig controls the optional status HTTP server. An empty address
// disables it.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional config file, environment
// variables, and whatever the caller already bound on v (CLI flags). A nil v
// starts from a fresh Viper.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("WMSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The probed host and path keep their historical environment names.
	_ = v.BindEnv("endpoint.domain", "WMSCAN_ENDPOINT_DOMAIN", "WM_DOMAIN")
	_ = v.BindEnv("endpoint.path", "WMSCAN_ENDPOINT_PATH", "WM_PATH")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.base", "")
	v.SetDefault("scan.start_date", "")
	v.SetDefault("scan.end_date", "")
	v.SetDefault("scan.start_time", "000000")
	v.SetDefault("scan.end_time", "235959")
	v.SetDefault("scan.workers", 50)
	v.SetDefault("scan.timeout_seconds", 19800)
	v.SetDefault("scan.resume_file", "progress.log")
	v.SetDefault("scan.output_file", "valid_links.txt")
	v.SetDefault("http.timeout_seconds", 8)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 300)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.pacing_ms", 50)
	v.SetDefault("http.max_rps", 0)
	v.SetDefault("http.user_agent", "wmscan/0.1")
	v.SetDefault("endpoint.domain", "")
	v.SetDefault("endpoint.path", "")
	v.SetDefault("server.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scan.Base == "" {
		return fmt.Errorf("scan.base must be set")
	}
	if _, err := c.Dates(); err != nil {
		return err
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be > 0")
	}
	if c.Scan.TimeoutSeconds < 0 {
		return fmt.Errorf("scan.timeout_seconds must be >= 0 (0 disables the budget)")
	}
	if c.Scan.ResumeFile == "" {
		return fmt.Errorf("scan.resume_file must be set")
	}
	if c.Scan.OutputFile == "" {
		return fmt.Errorf("scan.output_file must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.BackoffInitialMs <= 0 {
		return fmt.Errorf("http.backoff_initial_ms must be > 0")
	}
	if c.HTTP.BackoffMaxMs < c.HTTP.BackoffInitialMs {
		return fmt.Errorf("http.backoff_max_ms must be >= http.backoff_initial_ms")
	}
	if c.HTTP.PacingMs < 0 {
		return fmt.Errorf("http.pacing_ms must be >= 0")
	}
	if c.HTTP.MaxRPS < 0 {
		return fmt.Errorf("http.max_rps must be >= 0 (0 disables the limiter)")
	}
	if c.Endpoint.Domain == "" {
		return fmt.Errorf("endpoint.domain must be set (WM_DOMAIN)")
	}
	if c.Endpoint.Path == "" {
		return fmt.Errorf("endpoint.path must be set (WM_PATH)")
	}
	return nil
}

// Dates builds the validated date range from the configured bounds.
func (c Config) Dates() (scan.DateRange, error) {
	start, err := scan.ParseDate(c.Scan.StartDate)
	if err != nil {
		return scan.DateRange{}, fmt.Errorf("scan.start_date: %w", err)
	}
	end, err := scan.ParseDate(c.Scan.EndDate)
	if err != nil {
		return scan.DateRange{}, fmt.Errorf("scan.end_date: %w", err)
	}
	return scan.NewDateRange(start, end)
}

// Window builds the validated time window from the configured bounds.
func (c Config) Window() (scan.TimeWindow, error) {
	start, err := scan.ParseTimeCode(c.Scan.StartTime)
	if err != nil {
		return scan.TimeWindow{}, fmt.Errorf("scan.start_time: %w", err)
	}
	end, err := scan.ParseTimeCode(c.Scan.EndTime)
	if err != nil {
		return scan.TimeWindow{}, fmt.Errorf("scan.end_time: %w", err)
	}
	return scan.NewTimeWindow(start, end)
}

// ProbeEndpoint returns the probe endpoint resolved from configuration.
func (c Config) ProbeEndpoint() scan.Endpoint {
	return scan.Endpoint{Domain: c.Endpoint.Domain, Path: c.Endpoint.Path}
}

// Budget returns the wall-clock run ceiling; zero disables the guard.
func (c Config) Budget() time.Duration {
	return time.Duration(c.Scan.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the per-probe HTTP timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the first retry delay.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry delay ceiling.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}

// Pacing returns the fixed inter-probe delay applied inside each worker.
func (c Config) Pacing() time.Duration {
	return time.Duration(c.HTTP.PacingMs) * time.Millisecond
}
