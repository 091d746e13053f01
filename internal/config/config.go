// Package config loads and validates kasl's config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

// Monitor holds the state-machine timing knobs.
type Monitor struct {
	ActivityThreshold int `json:"activity_threshold"` // seconds
	PauseThreshold    int `json:"pause_threshold"`    // seconds
	PollInterval      int `json:"poll_interval"`       // milliseconds
	MinPauseDuration  int `json:"min_pause_duration"`  // minutes
	MinWorkInterval   int `json:"min_work_interval"`   // minutes
}

// Productivity holds the report-gating and adjustment-bound knobs.
type Productivity struct {
	MinProductivityThreshold float64 `json:"min_productivity_threshold"` // percent
	MinBreakDuration         int     `json:"min_break_duration"`         // minutes
	MaxBreakDuration         int     `json:"max_break_duration"`         // minutes
}

// Config is the runtime configuration, built from defaults and overlaid by
// config.json when present.
type Config struct {
	Monitor      Monitor      `json:"monitor"`
	Productivity Productivity `json:"productivity"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Monitor: Monitor{
			ActivityThreshold: 30,
			PauseThreshold:    60,
			PollInterval:      500,
			MinPauseDuration:  20,
			MinWorkInterval:   10,
		},
		Productivity: Productivity{
			MinProductivityThreshold: 0,
			MinBreakDuration:         0,
			MaxBreakDuration:         0,
		},
	}
}

// ActivityThresholdDuration returns the activity threshold as a Duration.
func (c Config) ActivityThresholdDuration() time.Duration {
	return time.Duration(c.Monitor.ActivityThreshold) * time.Second
}

// PauseThresholdDuration returns the pause threshold as a Duration.
func (c Config) PauseThresholdDuration() time.Duration {
	return time.Duration(c.Monitor.PauseThreshold) * time.Second
}

// PollIntervalDuration returns the sampler cadence as a Duration.
func (c Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.Monitor.PollInterval) * time.Millisecond
}

// MinPauseDurationDuration returns the minimum displayed pause length.
func (c Config) MinPauseDurationDuration() time.Duration {
	return time.Duration(c.Monitor.MinPauseDuration) * time.Minute
}

// MinWorkIntervalDuration returns the minimum displayed interval length.
func (c Config) MinWorkIntervalDuration() time.Duration {
	return time.Duration(c.Monitor.MinWorkInterval) * time.Minute
}

// Validate checks the invariant that every configured knob is non-negative,
// all configuration inputs are non-negative.
func (c Config) Validate() error {
	switch {
	case c.Monitor.ActivityThreshold < 0,
		c.Monitor.PauseThreshold < 0,
		c.Monitor.PollInterval < 0,
		c.Monitor.MinPauseDuration < 0,
		c.Monitor.MinWorkInterval < 0,
		c.Productivity.MinProductivityThreshold < 0,
		c.Productivity.MinBreakDuration < 0,
		c.Productivity.MaxBreakDuration < 0:
		return fmt.Errorf("%w: negative configuration value", kerrors.ErrConfigInvalid)
	case c.Productivity.MaxBreakDuration > 0 && c.Productivity.MinBreakDuration > c.Productivity.MaxBreakDuration:
		return fmt.Errorf("%w: min_break_duration exceeds max_break_duration", kerrors.ErrConfigInvalid)
	}
	return nil
}

// Load reads path, overlaying it onto Defaults(). A missing file is not an
// error (first run); a malformed one is ErrConfigInvalid. Mirrors the
// "defaults, then JSON overlay" staging used by the vault-manager client's
// config loader.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %v", kerrors.ErrConfigInvalid, path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", kerrors.ErrConfigInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DataDir returns the user data directory kasl's persisted state lives
// under (config.json, kasl.db, kasl.pid, kasl.log).
func DataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kasl"), nil
}

// DefaultConfigPath returns the default config.json location.
func DefaultConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultDBPath returns the default kasl.db location.
func DefaultDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kasl.db"), nil
}

// DefaultPIDPath returns the default kasl.pid location.
func DefaultPIDPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kasl.pid"), nil
}

// DefaultLogPath returns the default kasl.log location.
func DefaultLogPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kasl.log"), nil
}
