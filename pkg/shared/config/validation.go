package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scan-io-git/scanio-gate/pkg/shared/files"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

// ValidateConfig applies environment overrides and checks that the configuration has valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateScanioConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: scanio directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateUploadConfig(&cfg.Upload); err != nil {
		return fmt.Errorf("YAML global config: upload directive is invalid: %w", err)
	}
	for name, sc := range cfg.Scanners {
		if err := ValidateScannerConfig(sc); err != nil {
			return fmt.Errorf("YAML global config: scanners.%s directive is invalid: %w", name, err)
		}
	}
	return nil
}

// ValidateScanioConfig resolves folders and mode from the environment and defaults.
func ValidateScanioConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("scanio configuration is nil")
	}
	if err := updateFolder(&cfg.Scanio.HomeFolder, "SCANIO_HOME", "", cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Scanio.PluginsFolder, "SCANIO_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if err := updateFolder(&cfg.Scanio.ResultsFolder, "SCANIO_RESULTS_FOLDER", "results", cfg); err != nil {
		return fmt.Errorf("failed to update results folder: %w", err)
	}
	updateMode(cfg)
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"retry_max_wait_time": httpConfig.RetryMaxWaitTime,
		"retry_wait_time":     httpConfig.RetryWaitTime,
		"timeout":             httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	return validateProxy(&httpConfig.Proxy)
}

// ValidateUploadConfig applies environment overrides and checks the upload URL.
func ValidateUploadConfig(upload *Upload) error {
	if upload == nil {
		return fmt.Errorf("upload configuration is nil")
	}
	if env := os.Getenv("SCANIO_UPLOAD_URL"); env != "" {
		upload.URL = env
	}
	if env := os.Getenv("SCANIO_UPLOAD_TOKEN"); env != "" {
		upload.Token = env
	}
	if upload.URL == "" {
		return nil
	}
	u, err := url.Parse(upload.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", upload.URL)
	}
	return nil
}

// ValidateScannerConfig checks the timeout and extra markers of a scanner.
func ValidateScannerConfig(sc ScannerConfig) error {
	if err := validateDuration(sc.Timeout, "timeout", 24*time.Hour); err != nil {
		return err
	}
	if _, err := sc.MarkerTable(); err != nil {
		return err
	}
	return nil
}

// MarkerTable compiles the extra markers of a scanner.
func (sc ScannerConfig) MarkerTable() (verdict.Table, error) {
	var table verdict.Table
	for i, mc := range sc.Markers {
		name := mc.Name
		if name == "" {
			name = fmt.Sprintf("custom-%d", i+1)
		}
		if mc.Pattern == "" {
			return nil, fmt.Errorf("marker %q: pattern is required", name)
		}
		stream, err := verdict.ParseStream(mc.Stream)
		if err != nil {
			return nil, fmt.Errorf("marker %q: %w", name, err)
		}
		v, err := verdict.Parse(mc.Verdict)
		if err != nil {
			return nil, fmt.Errorf("marker %q: %w", name, err)
		}
		m, err := verdict.NewMarker(name, mc.Pattern, stream, v)
		if err != nil {
			return nil, err
		}
		table = append(table, m)
	}
	return table, nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if !strings.Contains(proxy.Host, "://") {
		proxy.Host = "http://" + proxy.Host
	}
	proxy.Host = strings.TrimRight(proxy.Host, "/")

	if _, err := url.Parse(proxy.Host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", proxy.Port)
	}
	return nil
}

// updateFolder sets a folder from an environment variable or a default below the home folder, expanding "~".
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		if defaultSubFolder == "" {
			*folder = GetScanioHome(nil)
		} else {
			*folder = filepath.Join(GetScanioHome(cfg), defaultSubFolder)
		}
	}

	expanded, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expanded
	return nil
}

// updateMode updates the Mode field based on environment variables.
func updateMode(cfg *Config) {
	if os.Getenv("SCANIO_MODE") == "CI" || os.Getenv("CI") == "true" {
		cfg.Scanio.Mode = "CI"
		return
	}

	if envVarValue := os.Getenv("SCANIO_MODE"); envVarValue != "" {
		cfg.Scanio.Mode = envVarValue
		return
	}

	if cfg.Scanio.Mode == "" {
		cfg.Scanio.Mode = "user"
	}
}
