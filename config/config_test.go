package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Decode.DefaultFmtIDBits != 9 {
		t.Errorf("DefaultFmtIDBits = %d, want 9", cfg.Decode.DefaultFmtIDBits)
	}
	if cfg.Decode.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q, want \"en\"", cfg.Decode.DefaultLocale)
	}
	if cfg.Decode.DefaultStatMode != "all" {
		t.Errorf("DefaultStatMode = %q, want \"all\"", cfg.Decode.DefaultStatMode)
	}
	if cfg.Timestamp.DeltaPlusMs != 330 {
		t.Errorf("DeltaPlusMs = %v, want 330", cfg.Timestamp.DeltaPlusMs)
	}
	if cfg.Timestamp.DeltaMinusMs != -100 {
		t.Errorf("DeltaMinusMs = %v, want -100", cfg.Timestamp.DeltaMinusMs)
	}
	if cfg.VCD.MaxVariablesPerFile != 512 {
		t.Errorf("MaxVariablesPerFile = %d, want 512", cfg.VCD.MaxVariablesPerFile)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Fatal("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "rtemsg.toml" {
		t.Errorf("GetConfigPath() base = %q, want rtemsg.toml", filepath.Base(path))
	}
}

func TestLoadFromMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadFrom on missing file: %v", err)
	}
	if cfg.Decode.DefaultFmtIDBits != DefaultConfig().Decode.DefaultFmtIDBits {
		t.Error("LoadFrom on a missing file should return the documented defaults")
	}
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtemsg.toml")
	content := `
[decode]
default_fmt_id_bits = 12

[timestamp]
delta_plus_ms = 500.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Decode.DefaultFmtIDBits != 12 {
		t.Errorf("DefaultFmtIDBits = %d, want 12", cfg.Decode.DefaultFmtIDBits)
	}
	if cfg.Timestamp.DeltaPlusMs != 500.0 {
		t.Errorf("DeltaPlusMs = %v, want 500", cfg.Timestamp.DeltaPlusMs)
	}
	// Untouched fields keep their defaults.
	if cfg.VCD.MaxVariablesPerFile != 512 {
		t.Errorf("MaxVariablesPerFile = %d, want 512 (unset in file)", cfg.VCD.MaxVariablesPerFile)
	}
}
