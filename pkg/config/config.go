// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads converter settings from defaults, YAML files, a .env
// file, AGENTPROMPTS_* environment variables and --set overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override (AGENTPROMPTS_OUTPUT_FORMAT -> output.format).
const EnvPrefix = "AGENTPROMPTS_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Input     InputConfig     `koanf:"input"`
	Output    OutputConfig    `koanf:"output"`
	Watch     WatchConfig     `koanf:"watch"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Store     StoreConfig     `koanf:"store"`
	Retry     RetryConfig     `koanf:"retry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type InputConfig struct {
	Path string `koanf:"path"` // "-" reads stdin
}

type OutputConfig struct {
	Path   string `koanf:"path"` // "-" writes stdout
	Format string `koanf:"format"` // json, yaml, sqlite
}

type WatchConfig struct {
	Interval time.Duration `koanf:"interval"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"` // stdout, otlp, none
	Endpoint    string `koanf:"endpoint"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service"`
}

// StoreConfig controls the SQLite run history.
type StoreConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// RetryConfig bounds retries of transient sink and store failures.
type RetryConfig struct {
	Attempts     int           `koanf:"attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
}

// Options selects the sources LoadWithOptions reads.
type Options struct {
	Path      string
	Profile   string
	EnvFile   string
	Overrides map[string]string
}

var defaults = map[string]interface{}{
	"log.level":           "info",
	"log.format":          "text",
	"input.path":          "agentPrompt.txt",
	"output.path":         "output.json",
	"output.format":       "json",
	"watch.interval":      "1s",
	"telemetry.enabled":   false,
	"telemetry.exporter":  "stdout",
	"telemetry.service":   "agentprompts",
	"store.enabled":       false,
	"store.path":          "agentprompts.db",
	"retry.attempts":      3,
	"retry.initial_delay": "100ms",
	"retry.max_delay":     "2s",
}

// Load reads defaults, the optional YAML file at path and the environment.
func Load(path string) (*Config, error) {
	return LoadWithOptions(Options{Path: path})
}

// LoadWithProfile overlays <name>.<profile><ext> on top of path when it exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	return LoadWithOptions(Options{Path: path, Profile: profile})
}

// LoadWithOptions builds the configuration from every source in opts.
func LoadWithOptions(opts Options) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	// 1. Load from file, then the profile overlay
	if opts.Path != "" {
		if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", opts.Path, err)
		}
		if profile := strings.TrimSpace(opts.Profile); profile != "" {
			overlay := profilePath(opts.Path, profile)
			if _, err := os.Stat(overlay); err == nil {
				if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("load %s: %w", overlay, err)
				}
			}
		}
	}

	// 2. .env never overrides variables that are already set
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	// 3. Load from ENV (AGENTPROMPTS_OUTPUT_FORMAT -> output.format)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// 4. Explicit overrides win
	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unsupported formats and incomplete exporter settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml", "sqlite":
	default:
		return fmt.Errorf("unsupported output.format %q (json, yaml, sqlite)", c.Output.Format)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log.format %q (text, json)", c.Log.Format)
	}
	switch strings.ToLower(c.Telemetry.Exporter) {
	case "", "stdout", "none":
	case "otlp":
		if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported telemetry.exporter %q (stdout, otlp, none)", c.Telemetry.Exporter)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	if strings.TrimSpace(c.Input.Path) == "" {
		return fmt.Errorf("input.path is required")
	}
	if c.Output.Format == "sqlite" && c.Output.Path == "-" {
		return fmt.Errorf("output.format sqlite cannot write to stdout")
	}
	return nil
}

func profilePath(path, profile string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + profile + ext
}

func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
