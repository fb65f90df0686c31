package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config aggregates every service setting.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Poll     PollConfig     `yaml:"poll"`
	Recorder RecorderConfig `yaml:"recorder"`
	View     ViewConfig     `yaml:"view"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// UpstreamConfig points at the process that serves conversations and treasury.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollConfig controls the treasury refresh schedule.
type PollConfig struct {
	TreasuryCron string `yaml:"treasury_cron"`
}

// RecorderConfig enables the SQLite snapshot history when SQLitePath is set.
type RecorderConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// ViewConfig controls page rendering.
type ViewConfig struct {
	TemplatePath string `yaml:"template_path"`
	StartupHint  string `yaml:"startup_hint"`
	Timezone     string `yaml:"timezone"`
}

// Location resolves Timezone, falling back to the local zone.
func (c ViewConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultBaseURL      = "http://127.0.0.1:5000"
	defaultTimeout      = 10
	defaultTreasuryCron = "@every 30s"
	defaultStartupHint  = "Run: python orchestrator.py"
)

// Load reads the optional YAML file named by VIEWER_CONFIG, applies
// environment overrides, then fills defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := strings.TrimSpace(os.Getenv("VIEWER_CONFIG")); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file into cfg. A missing file is not an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		addr, err := parseAddr(raw)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}

	if v := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")); v != "" {
		cfg.Upstream.BaseURL = v
	}

	timeout, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT")
	if err != nil {
		return err
	}
	if timeout != nil {
		cfg.Upstream.TimeoutSeconds = *timeout
	}

	cfg.Poll.TreasuryCron = getEnvOrDefault("TREASURY_POLL_CRON", cfg.Poll.TreasuryCron)
	cfg.Recorder.SQLitePath = getEnvOrDefault("RECORDER_SQLITE_PATH", cfg.Recorder.SQLitePath)
	cfg.View.TemplatePath = getEnvOrDefault("TEMPLATE_PATH", cfg.View.TemplatePath)
	cfg.View.StartupHint = getEnvOrDefault("STARTUP_HINT", cfg.View.StartupHint)
	cfg.View.Timezone = getEnvOrDefault("VIEWER_TIMEZONE", cfg.View.Timezone)
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("LOG_FORMAT", cfg.Log.Format)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = defaultBaseURL
	}
	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = defaultTimeout
	}
	if cfg.Poll.TreasuryCron == "" {
		cfg.Poll.TreasuryCron = defaultTreasuryCron
	}
	if cfg.View.StartupHint == "" {
		cfg.View.StartupHint = defaultStartupHint
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks that all required fields are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base url %q", c.Upstream.BaseURL)
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %d", c.Upstream.TimeoutSeconds)
	}
	if _, err := cron.ParseStandard(c.Poll.TreasuryCron); err != nil {
		return fmt.Errorf("invalid treasury poll schedule %q: %w", c.Poll.TreasuryCron, err)
	}
	return nil
}

// parseAddr turns PORT into a listen address.
func parseAddr(port string) (string, error) {
	if strings.Contains(port, ":") {
		// already an address such as ":8080" or "127.0.0.1:8080"
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
