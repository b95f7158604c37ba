package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoYAML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CrystalBinary != "crystal" || cfg.MaxOracleJobs != 2 {
		t.Fatalf("got %+v", cfg)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(yamlPath, []byte("strict_mode: true\ncrystal_binary: /usr/local/bin/crystal\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.StrictMode || cfg.CrystalBinary != "/usr/local/bin/crystal" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(yamlPath, []byte("crystal_binary: /from/yaml\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("LIGER_CRYSTAL_BIN", "/from/env")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CrystalBinary != "/from/env" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestValidateRejectsZeroMaxOracleJobs(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(yamlPath, []byte("max_oracle_jobs: 0\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected validation error")
	}
}
