package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/auto/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "auto.yaml"

	// DefaultAddr is the default listen address of 'auto serve'.
	DefaultAddr = ":8080"

	// DefaultFeedURL is the default feed 'auto demo' connects to.
	DefaultFeedURL = "ws://localhost:8080/ws"
)

// Config represents the complete auto.yaml configuration.
type Config struct {
	// Server contains 'auto serve' settings.
	Server ServerConfig `yaml:"server"`

	// Demo contains 'auto demo' settings.
	Demo DemoConfig `yaml:"demo"`

	// Log contains logging settings shared by all commands.
	Log LogConfig `yaml:"log"`

	// Checks contains change detection settings for demo hosts.
	Checks ChecksConfig `yaml:"checks"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// MetricsPath is the Prometheus endpoint path.
	MetricsPath string `yaml:"metrics_path"`

	// FeedPath is the WebSocket tick feed path.
	FeedPath string `yaml:"feed_path"`

	// TickInterval is the period of the tick feed (e.g., "1s").
	TickInterval string `yaml:"tick_interval"`
}

// DemoConfig contains demo host settings.
type DemoConfig struct {
	// FeedURL is the WebSocket URL of the tick feed.
	FeedURL string `yaml:"feed_url"`

	// Passes is the number of check passes to run; 0 runs until interrupted.
	Passes int `yaml:"passes"`

	// CheckInterval is the period between check passes (e.g., "500ms").
	CheckInterval string `yaml:"check_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// ChecksConfig contains change detection settings.
type ChecksConfig struct {
	// Coalesce calls MarkForCheck at most once per pass.
	Coalesce bool `yaml:"coalesce"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint and records host metrics.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MetricsPath:  "/metrics",
			FeedPath:     "/ws",
			TickInterval: "1s",
		},
		Demo: DemoConfig{
			FeedURL:       DefaultFeedURL,
			Passes:        10,
			CheckInterval: "500ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "auto",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for auto.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Environment
// variables in the file are expanded before parsing, after loading .env and
// .env.local from the file's directory; keys missing from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("A020").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'auto init' to write a default configuration")
		}
		return nil, errors.New("A021").Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.New("A021").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvFiles are loaded by LoadFile, in order. Variables already set in the
// environment are never overridden.
var EnvFiles = []string{".env", ".env.local"}

func loadEnvFiles(dir string) {
	for _, name := range EnvFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// A malformed env file leaves its variables unset; the YAML
		// validation then reports the empty values.
		_ = godotenv.Load(path)
	}
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("A021").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("A021").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for fields set empty in the file.
func (c *Config) applyDefaults() {
	def := New()

	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = def.Server.MetricsPath
	}
	if c.Server.FeedPath == "" {
		c.Server.FeedPath = def.Server.FeedPath
	}
	if c.Server.TickInterval == "" {
		c.Server.TickInterval = def.Server.TickInterval
	}
	if c.Demo.FeedURL == "" {
		c.Demo.FeedURL = def.Demo.FeedURL
	}
	if c.Demo.CheckInterval == "" {
		c.Demo.CheckInterval = def.Demo.CheckInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = def.Metrics.Namespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("A021").WithDetail(detail)
	}

	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return invalid("server.metrics_path must start with '/'")
	}
	if !strings.HasPrefix(c.Server.FeedPath, "/") {
		return invalid("server.feed_path must start with '/'")
	}
	if c.Server.MetricsPath == c.Server.FeedPath {
		return invalid("server.metrics_path and server.feed_path must differ")
	}
	if _, err := positiveDuration(c.Server.TickInterval); err != nil {
		return invalid("server.tick_interval: " + err.Error())
	}
	if _, err := positiveDuration(c.Demo.CheckInterval); err != nil {
		return invalid("demo.check_interval: " + err.Error())
	}
	if c.Demo.Passes < 0 {
		return invalid("demo.passes must not be negative")
	}
	if !strings.HasPrefix(c.Demo.FeedURL, "ws://") && !strings.HasPrefix(c.Demo.FeedURL, "wss://") {
		return invalid("demo.feed_url must be a ws:// or wss:// URL")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json")
	}
	return nil
}

// TickInterval returns the parsed server tick interval.
func (c *Config) TickInterval() time.Duration {
	d, _ := positiveDuration(c.Server.TickInterval)
	return d
}

// CheckInterval returns the parsed demo check interval.
func (c *Config) CheckInterval() time.Duration {
	d, _ := positiveDuration(c.Demo.CheckInterval)
	return d
}

// SlogLevel returns the configured log level, Info if unrecognized.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CategoryConfig, "duration %q must be positive", s)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
