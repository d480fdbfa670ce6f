package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ddlc/pkg/compiler"
	"ddlc/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ddlc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("DDLC_TEST_INCLUDE", "/opt/schemas")
	path := writeConfig(t, `
compiler:
  reserve_double_underscore: true
  bitfield_flag_limit: 32
  include_paths: ["${DDLC_TEST_INCLUDE}", "vendor"]
  allowed_tags:
    field: [primary, index]
    item: []
logging:
  level: debug
  format: json
cache:
  enabled: true
watch:
  debounce: 1s
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Compiler.ReserveDoubleUnderscore || cfg.Compiler.BitfieldFlagLimit != 32 {
		t.Errorf("unexpected compiler section: %+v", cfg.Compiler)
	}
	if got := strings.Join(cfg.Compiler.IncludePaths, ","); got != "/opt/schemas,vendor" {
		t.Errorf("expected expanded include paths, got %s", got)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("expected debug/json, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path != ".ddlc-cache.db" {
		t.Errorf("expected cache enabled at the default path, got %+v", cfg.Cache)
	}
	if cfg.Compiler.MaxDefinitionBytes != 16<<20 {
		t.Errorf("expected default arena size, got %d", cfg.Compiler.MaxDefinitionBytes)
	}

	opts := cfg.CompilerOptions("main.ddl")
	if opts.File != "main.ddl" || !opts.TwoUsReserved || opts.BitfieldLimit != 32 {
		t.Errorf("unexpected options: %+v", opts)
	}
	allowed, ok := opts.Validator.(compiler.AllowedTags)
	if !ok {
		t.Fatalf("expected AllowedTags validator, got %T", opts.Validator)
	}
	if len(allowed[compiler.OwnerField]) != 2 {
		t.Errorf("expected 2 field tags, got %v", allowed[compiler.OwnerField])
	}
	if _, ok := allowed[compiler.OwnerItem]; !ok {
		t.Error("expected an empty item entry to be kept")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")
	t.Setenv("DDLC_LOG_LEVEL", "warn")
	t.Setenv("DDLC_BITFIELD_FLAG_LIMIT", "8")
	t.Setenv("DDLC_METRICS_ENABLED", "yes")
	t.Setenv("DDLC_WATCH_DEBOUNCE", "50ms")
	t.Setenv("DDLC_INCLUDE_PATHS", "a"+string(os.PathListSeparator)+"b")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %s", cfg.Logging.Level)
	}
	if cfg.Compiler.BitfieldFlagLimit != 8 {
		t.Errorf("expected 8, got %d", cfg.Compiler.BitfieldFlagLimit)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9464" {
		t.Errorf("expected metrics on the default address, got %+v", cfg.Metrics)
	}
	if cfg.Watch.Debounce != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Compiler.IncludePaths) != 2 {
		t.Errorf("expected 2 include paths, got %v", cfg.Compiler.IncludePaths)
	}
}

func TestLoadWithFallback(t *testing.T) {
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback failed: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected console logging by default, got %s", cfg.Logging.Format)
	}
	if opts := cfg.CompilerOptions(""); opts.Validator != nil {
		t.Errorf("expected no validator, got %T", opts.Validator)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"Bad Level", "logging:\n  level: loud\n", "logging.level"},
		{"Bad Format", "logging:\n  format: xml\n", "logging.format"},
		{"Negative Limit", "compiler:\n  bitfield_flag_limit: -1\n", "bitfield_flag_limit"},
		{"Unknown Owner", "compiler:\n  allowed_tags:\n    enum: [a]\n", `unknown owner kind "enum"`},
		{"Bad Metrics Path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"Bad YAML", "compiler: [\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
