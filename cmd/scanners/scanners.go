package scanners

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
)

var AppConfig *config.Config

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewScannersCmd creates the command listing available scanners.
func NewScannersCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "scanners",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List built-in scanners and installed scanner plugins",
		Run: func(cmd *cobra.Command, args []string) {
			printScanners(cmd.OutOrStdout(), AppConfig, registry.Default())
		},
	}
}

// printScanners prints every known scanner with its source and state.
// A plugin binary shadows the built-in scanner of the same name.
func printScanners(w io.Writer, cfg *config.Config, reg *registry.Registry) {
	plugins := shared.ListPlugins(cfg)

	for _, name := range reg.Names() {
		source := shared.SourceBuiltin
		if shared.IsInList(name, plugins) {
			source = shared.SourcePlugin
		}
		fmt.Fprintf(w, "%-12s %-8s%s\n", name, source, state(cfg, name))
	}
	for _, name := range plugins {
		if _, err := reg.Lookup(name); err == nil {
			continue
		}
		fmt.Fprintf(w, "%-12s %-8s%s\n", name, shared.SourcePlugin, state(cfg, name))
	}
}

func state(cfg *config.Config, name string) string {
	if cfg.Scanner(name).Disabled {
		return " (disabled)"
	}
	return ""
}
