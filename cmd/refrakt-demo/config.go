package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the demo server configuration, loadable from YAML.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Tick, when positive, auto-increments the counter at this interval.
	Tick time.Duration `yaml:"tick"`

	// Snapshot selects where state snapshots go.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// SnapshotConfig configures state persistence.
type SnapshotConfig struct {
	// Backend is "memory" or "s3".
	Backend string `yaml:"backend"`

	// Bucket and Key locate the snapshot object when Backend is "s3".
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key"`

	// Region is the AWS region when Backend is "s3".
	Region string `yaml:"region"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:     ":6360",
		LogLevel: "info",
		Snapshot: SnapshotConfig{
			Backend: "memory",
			Key:     "state/refrakt-demo.json",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Snapshot.Backend {
	case "", "memory":
	case "s3":
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("snapshot backend s3 requires a bucket")
		}
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}

	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
