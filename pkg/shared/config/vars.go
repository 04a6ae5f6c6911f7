package config

import (
	"os"
	"path/filepath"
)

// GetScanioHome returns the home folder of scanio-gate.
func GetScanioHome(cfg *Config) string {
	if cfg != nil && cfg.Scanio.HomeFolder != "" {
		return cfg.Scanio.HomeFolder
	}
	if env := os.Getenv("SCANIO_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scanio"
	}
	return filepath.Join(home, ".scanio")
}

// GetScanioPluginsHome returns the folder scanner plugin binaries are looked up in.
func GetScanioPluginsHome(cfg *Config) string {
	if cfg != nil && cfg.Scanio.PluginsFolder != "" {
		return cfg.Scanio.PluginsFolder
	}
	return filepath.Join(GetScanioHome(cfg), "plugins")
}

// GetScanioResultsHome returns the folder results are written to by default.
func GetScanioResultsHome(cfg *Config) string {
	if cfg != nil && cfg.Scanio.ResultsFolder != "" {
		return cfg.Scanio.ResultsFolder
	}
	return filepath.Join(GetScanioHome(cfg), "results")
}

// IsCI reports whether scanio-gate runs in CI mode.
func IsCI(cfg *Config) bool {
	if cfg != nil && cfg.Scanio.Mode != "" {
		return cfg.Scanio.Mode == "CI"
	}
	return os.Getenv("SCANIO_MODE") == "CI" || os.Getenv("CI") == "true"
}
