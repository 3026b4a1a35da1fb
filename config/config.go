// Package config loads the optional rtemsg.toml defaults that the CLI
// flags in §6 override. Modeled on the teacher's config package: a
// struct-of-structs populated by DefaultConfig, overridable from a TOML
// file at a platform-specific path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the tunable defaults every CLI flag in §6 can override. The
// driver applies only Decode.DefaultFmtIDBits (when -N is not given); the
// other fields are loaded but not used by a decode run.
type Config struct {
	Decode struct {
		DefaultFmtIDBits int    `toml:"default_fmt_id_bits"`
		DefaultLocale    string `toml:"default_locale"`
		DefaultStatMode  string `toml:"default_stat_mode"`
		TimeUnit         string `toml:"time_unit"`
		Newline          bool   `toml:"newline"`
	} `toml:"decode"`

	Timestamp struct {
		DeltaPlusMs  float64 `toml:"delta_plus_ms"`
		DeltaMinusMs float64 `toml:"delta_minus_ms"`
	} `toml:"timestamp"`

	VCD struct {
		MaxVariablesPerFile          int `toml:"max_variables_per_file"`
		MaxConsecutiveTimestampErrors int `toml:"max_consecutive_timestamp_errors"`
	} `toml:"vcd"`

	ErrorFormat struct {
		Pattern string `toml:"pattern"`
	} `toml:"error_format"`
}

// DefaultConfig returns a Config populated with the spec's documented
// defaults (§4.5, §4.8).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Decode.DefaultFmtIDBits = 9
	cfg.Decode.DefaultLocale = "en"
	cfg.Decode.DefaultStatMode = "all"
	cfg.Decode.TimeUnit = "s"
	cfg.Decode.Newline = false

	cfg.Timestamp.DeltaPlusMs = 0.33 * 1000
	cfg.Timestamp.DeltaMinusMs = -0.10 * 1000

	cfg.VCD.MaxVariablesPerFile = 512
	cfg.VCD.MaxConsecutiveTimestampErrors = 16

	cfg.ErrorFormat.Pattern = "%F(%L): %E"

	return cfg
}

// GetConfigPath returns the platform-specific rtemsg.toml path, following
// the teacher's config.GetConfigPath layout.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rtemsg")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "rtemsg.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rtemsg")

	default:
		return "rtemsg.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "rtemsg.toml"
	}
	return filepath.Join(configDir, "rtemsg.toml")
}

// Load reads the default config path, falling back to defaults if the
// file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads path, falling back to defaults if it doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
