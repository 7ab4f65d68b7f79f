// Package config loads screentime settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/screentime/internal/logging"
)

const (
	// DefaultIntervalMinutes is the tick interval when none is given.
	DefaultIntervalMinutes = 1
	// DefaultIdleThreshold is the unchanged-tick count before a user is idle.
	DefaultIdleThreshold = 5
)

// Config holds every tunable setting. Paths are absolute after Load.
type Config struct {
	LogFile   string `yaml:"log_file"`
	SessionDB string `yaml:"session_db"`
	PIDFile   string `yaml:"pid_file"`
	DaemonLog string `yaml:"daemon_log"`

	IntervalMinutes int  `yaml:"interval_minutes"`
	IdleThreshold   int  `yaml:"idle_threshold"`
	LiveReport      bool `yaml:"live_report"`

	LogLevel string `yaml:"log_level"`
}

// Dir returns the config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/screentime.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "screentime"), nil
}

// DataDir returns the directory holding the usage log, PID file and session
// database. SCREENTIME_HOME overrides the default ~/.screentime.
func DataDir() (string, error) {
	if dir := os.Getenv("SCREENTIME_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".screentime"), nil
}

// Default returns the built-in settings rooted at dataDir.
func Default(dataDir string) *Config {
	return &Config{
		LogFile:         filepath.Join(dataDir, "usage_logs.csv"),
		SessionDB:       filepath.Join(dataDir, "sessions.db"),
		PIDFile:         filepath.Join(dataDir, "tracker.pid"),
		DaemonLog:       filepath.Join(dataDir, "tracker.log"),
		IntervalMinutes: DefaultIntervalMinutes,
		IdleThreshold:   DefaultIdleThreshold,
		LogLevel:        "info",
	}
}

// Path returns the config file location: SCREENTIME_CONFIG if set, else
// config.yaml in Dir().
func Path() (string, error) {
	if p := os.Getenv("SCREENTIME_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the configuration: defaults, then the file at path (a missing
// file is not an error; an empty path means Path()), then environment
// overrides, then validation.
func Load(path string) (*Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	cfg := Default(dataDir)

	if path == "" {
		if path, err = Path(); err != nil {
			return nil, fmt.Errorf("failed to locate config file: %w", err)
		}
	}
	if err := loadFromFile(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	cfg.LogFile = expandHome(cfg.LogFile)
	cfg.SessionDB = expandHome(cfg.SessionDB)
	cfg.PIDFile = expandHome(cfg.PIDFile)
	cfg.DaemonLog = expandHome(cfg.DaemonLog)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - path comes from the user's own flag, env var or XDG dir
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("SCREENTIME_LOG"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("SCREENTIME_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCREENTIME_INTERVAL: %w", err)
		}
		cfg.IntervalMinutes = n
	}

	if v := os.Getenv("SCREENTIME_IDLE_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCREENTIME_IDLE_THRESHOLD: %w", err)
		}
		cfg.IdleThreshold = n
	}

	if v := os.Getenv("SCREENTIME_LIVE_REPORT"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.LiveReport = true
		case "false", "0", "no":
			cfg.LiveReport = false
		default:
			return fmt.Errorf("invalid SCREENTIME_LIVE_REPORT value: %q (use true/false)", v)
		}
	}

	if v := os.Getenv("SCREENTIME_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return nil
}

// Validate checks ranges and required paths.
func (c *Config) Validate() error {
	if c.LogFile == "" {
		return fmt.Errorf("log_file is required")
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", c.IntervalMinutes)
	}
	if c.IdleThreshold <= 0 {
		return fmt.Errorf("idle_threshold must be positive, got %d", c.IdleThreshold)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() logging.Level {
	lvl, _ := logging.ParseLevel(c.LogLevel)
	return lvl
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
