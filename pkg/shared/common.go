package shared

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/logger"
)

const (
	PluginTypeScanner string = "scanner"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SCANIO_GATE",
	MagicCookieValue: "5d3c1f0e9a7b42c8b6e2d4f1a0c9e8b7d6f5a4c3",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeScanner: &ScannerPlugin{},
}

// Versions holds build metadata.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// PluginPath returns the path of a scanner plugin binary and whether it exists.
func PluginPath(cfg *config.Config, pluginName string) (string, bool) {
	path := filepath.Join(config.GetScanioPluginsHome(cfg), pluginName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// ListPlugins returns the names of plugin binaries found in the plugins folder.
func ListPlugins(cfg *config.Config) []string {
	entries, err := os.ReadDir(config.GetScanioPluginsHome(cfg))
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

// WithPlugin starts the plugin binary, dispenses the requested plugin type and hands it to f.
// The plugin process is killed when f returns.
func WithPlugin(cfg *config.Config, loggerName string, pluginType string, pluginName string, f func(interface{}) error) error {
	pluginLogger := logger.NewLogger(cfg, loggerName)

	pluginPath, ok := PluginPath(cfg, pluginName)
	if !ok {
		return fmt.Errorf("plugin %q not found in %q", pluginName, filepath.Dir(pluginPath))
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          pluginLogger,
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start plugin %q: %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		return fmt.Errorf("failed to dispense plugin %q: %w", pluginName, err)
	}

	return f(raw)
}

// ForEveryStringWithBoundedGoroutines calls f for every value with at most limit calls running at once.
func ForEveryStringWithBoundedGoroutines(limit int, values []interface{}, f func(i int, value interface{})) {
	if limit < 1 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value interface{}) {
			defer wg.Done()
			defer func() { <-guard }()
			f(i, value)
		}(i, value)
	}
	wg.Wait()
}

// HasFlags reports whether any flag of the set was explicitly changed.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// IsInList reports whether target is one of list.
func IsInList(target string, list []string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

// PluginLogger returns a logger suitable for plugin processes.
func PluginLogger(name string) hclog.Logger {
	return logger.NewPluginLogger(name)
}
