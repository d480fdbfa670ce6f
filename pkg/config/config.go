// Package config provides configuration loading and validation for ddlc.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ddlc/pkg/compiler"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "ddlc.yaml"

// Config is the root configuration structure.
type Config struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Cache    CacheConfig    `yaml:"cache"`
	Watch    WatchConfig    `yaml:"watch"`
}

// CompilerConfig configures compilation.
type CompilerConfig struct {
	ReserveDoubleUnderscore bool     `yaml:"reserve_double_underscore"`
	BitfieldFlagLimit       int      `yaml:"bitfield_flag_limit"` // 0 = unlimited
	MaxDefinitionBytes      int      `yaml:"max_definition_bytes"`
	MaxScratchBytes         int      `yaml:"max_scratch_bytes"`
	IncludePaths            []string `yaml:"include_paths"`
	// AllowedTags restricts generic tag names per owner kind
	// ("struct", "field", "select", "item", "bitfield", "flag").
	AllowedTags map[string][]string `yaml:"allowed_tags,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// CacheConfig configures the compiled blob cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures recompilation on change.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration from defaults and DDLC_* variables only.
//
// Environment variables:
//
//	DDLC_RESERVE_DOUBLE_UNDERSCORE - Reject identifiers starting with "__"
//	DDLC_BITFIELD_FLAG_LIMIT       - Max bit-occupying flags per bitfield
//	DDLC_MAX_DEFINITION_BYTES      - Definition arena size (default: 16 MiB)
//	DDLC_MAX_SCRATCH_BYTES         - Scratch arena size (default: 16 MiB)
//	DDLC_INCLUDE_PATHS             - Include search path, os.PathListSeparator separated
//	DDLC_LOG_LEVEL                 - Log level (default: info)
//	DDLC_LOG_FORMAT                - json or console (default: console)
//	DDLC_METRICS_ENABLED           - Serve metrics while watching
//	DDLC_METRICS_ADDR              - Metrics listen address (default: :9464)
//	DDLC_CACHE_ENABLED             - Cache compiled blobs
//	DDLC_CACHE_PATH                - Cache database (default: .ddlc-cache.db)
//	DDLC_WATCH_DEBOUNCE            - Delay before recompiling (default: 200ms)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists and falls back to LoadFromEnv.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DDLC_RESERVE_DOUBLE_UNDERSCORE"); v != "" {
		cfg.Compiler.ReserveDoubleUnderscore = parseBool(v)
	}
	if v := os.Getenv("DDLC_BITFIELD_FLAG_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compiler.BitfieldFlagLimit = n
		}
	}
	if v := os.Getenv("DDLC_MAX_DEFINITION_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compiler.MaxDefinitionBytes = n
		}
	}
	if v := os.Getenv("DDLC_MAX_SCRATCH_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compiler.MaxScratchBytes = n
		}
	}
	if v := os.Getenv("DDLC_INCLUDE_PATHS"); v != "" {
		cfg.Compiler.IncludePaths = strings.Split(v, string(os.PathListSeparator))
	}

	if v := os.Getenv("DDLC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DDLC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("DDLC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("DDLC_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	if v := os.Getenv("DDLC_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("DDLC_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}

	if v := os.Getenv("DDLC_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Compiler.MaxDefinitionBytes == 0 {
		cfg.Compiler.MaxDefinitionBytes = 16 << 20
	}
	if cfg.Compiler.MaxScratchBytes == 0 {
		cfg.Compiler.MaxScratchBytes = 16 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = ".ddlc-cache.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if cfg.Compiler.BitfieldFlagLimit < 0 {
		return fmt.Errorf("compiler.bitfield_flag_limit must not be negative, got %d", cfg.Compiler.BitfieldFlagLimit)
	}
	if cfg.Compiler.MaxDefinitionBytes < 0 || cfg.Compiler.MaxScratchBytes < 0 {
		return fmt.Errorf("compiler arena sizes must be positive")
	}
	kinds := make([]string, 0, len(cfg.Compiler.AllowedTags))
	for kind := range cfg.Compiler.AllowedTags {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if _, ok := compiler.ParseOwnerKind(kind); !ok {
			return fmt.Errorf("compiler.allowed_tags: unknown owner kind %q", kind)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}

	return nil
}

// CompilerOptions converts the compiler section into compile options.
// file names the source in diagnostics.
func (c *Config) CompilerOptions(file string) compiler.Options {
	opts := compiler.Options{
		File:          file,
		TwoUsReserved: c.Compiler.ReserveDoubleUnderscore,
		BitfieldLimit: c.Compiler.BitfieldFlagLimit,
	}
	if len(c.Compiler.AllowedTags) > 0 {
		allowed := make(compiler.AllowedTags, len(c.Compiler.AllowedTags))
		for name, tags := range c.Compiler.AllowedTags {
			// validated by Load
			kind, _ := compiler.ParseOwnerKind(name)
			allowed[kind] = append([]string(nil), tags...)
		}
		opts.Validator = allowed
	}
	return opts
}
