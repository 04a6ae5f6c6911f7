package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the global YAML configuration of scanio-gate.
type Config struct {
	Logger     Logger                   `yaml:"logger"`
	Scanio     Scanio                   `yaml:"scanio"`
	HTTPClient HTTPClient               `yaml:"http_client"`
	Upload     Upload                   `yaml:"upload"`
	Scanners   map[string]ScannerConfig `yaml:"scanners"`
}

// Logger holds logging settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Scanio holds folder and mode settings.
type Scanio struct {
	HomeFolder    string `yaml:"home_folder"`
	PluginsFolder string `yaml:"plugins_folder"`
	ResultsFolder string `yaml:"results_folder"`
	Mode          string `yaml:"mode"`
}

// HTTPClient holds settings of the HTTP client used for uploads.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig holds TLS settings.
type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Proxy holds proxy settings.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Upload holds the endpoint aggregate results are posted to.
type Upload struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// ScannerConfig holds per scanner settings.
type ScannerConfig struct {
	Binary   string            `yaml:"binary"`
	Args     []string          `yaml:"args"`
	Timeout  time.Duration     `yaml:"timeout"`
	Disabled bool              `yaml:"disabled"`
	Markers  []MarkerConfig    `yaml:"markers"`
	Options  map[string]string `yaml:"options"`
}

// MarkerConfig is an extra classification marker declared in YAML.
type MarkerConfig struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Stream  string `yaml:"stream"`
	Verdict string `yaml:"verdict"`
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return fmt.Errorf("failed to decode %q: %w", configPath, err)
	}

	return nil
}

// LoadConfig reads the configuration file. A missing file yields an empty configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := LoadYAML(configPath, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Scanner returns the settings of the named scanner, with environment overrides applied.
func (c *Config) Scanner(name string) ScannerConfig {
	var sc ScannerConfig
	if c != nil && c.Scanners != nil {
		sc = c.Scanners[name]
	}
	if binary := os.Getenv(scannerEnv(name, "BINARY")); binary != "" {
		sc.Binary = binary
	}
	return sc
}
