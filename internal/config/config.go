// Package config loads liger's settings using the same layering CodeForge
// uses for its own config: defaults, then an optional YAML file, then
// environment variables, each overriding the last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration, relative to
// the workspace root.
const DefaultConfigFile = ".liger.yaml"

// Config holds every tunable liger reads at startup.
type Config struct {
	StrictMode    bool          `yaml:"strict_mode"`
	CacheDir      string        `yaml:"cache_dir"`
	WorkspaceRoot string        `yaml:"workspace_root"`
	CrystalBinary string        `yaml:"crystal_binary"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
	MaxOracleJobs int           `yaml:"max_oracle_jobs"`
	LogLevel      string        `yaml:"log_level"`
}

// Defaults returns the configuration liger runs with before any YAML file
// or environment variable is applied.
func Defaults() Config {
	return Config{
		StrictMode:    false,
		CacheDir:      ".liger-cache",
		WorkspaceRoot: ".",
		CrystalBinary: "crystal",
		OracleTimeout: 10 * time.Second,
		MaxOracleJobs: 2,
		LogLevel:      "info",
	}
}

// Load returns a Config using the hierarchy: defaults < YAML < ENV. The
// YAML file at workspaceRoot/.liger.yaml is optional; a missing file is
// not an error.
func Load(workspaceRoot string) (*Config, error) {
	cfg := Defaults()
	cfg.WorkspaceRoot = workspaceRoot

	path := workspaceRoot + string(os.PathSeparator) + DefaultConfigFile
	if err := loadYAML(&cfg, path); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	setBool(&cfg.StrictMode, "LIGER_STRICT")
	setString(&cfg.CacheDir, "LIGER_CACHE_DIR")
	setString(&cfg.CrystalBinary, "LIGER_CRYSTAL_BIN")
	setDuration(&cfg.OracleTimeout, "LIGER_ORACLE_TIMEOUT")
	setInt(&cfg.MaxOracleJobs, "LIGER_MAX_ORACLE_JOBS")
	setString(&cfg.LogLevel, "LIGER_LOG_LEVEL")
}

func validate(cfg *Config) error {
	if cfg.MaxOracleJobs < 1 {
		return fmt.Errorf("max_oracle_jobs must be >= 1, got %d", cfg.MaxOracleJobs)
	}
	if cfg.OracleTimeout <= 0 {
		return fmt.Errorf("oracle_timeout must be positive, got %s", cfg.OracleTimeout)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
