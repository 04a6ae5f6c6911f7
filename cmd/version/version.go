package version

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/errors"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// probeTimeout bounds every tool version probe.
const probeTimeout = 30 * time.Second

// CoreVersions holds version information for the core application and the scanned tools.
type CoreVersions struct {
	Versions     shared.Versions   `json:"versions"`
	ToolVersions map[string]string `json:"tool_versions"`
	Plugins      []string          `json:"plugins"`
}

// versioner is implemented by scanners able to report the version of their tool.
type versioner interface {
	Version(ctx context.Context) (string, error)
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and the scanned tools",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			version := CoreVersions{
				Versions: shared.Versions{
					Version:       CoreVersion,
					GolangVersion: GolangVersion,
					BuildTime:     BuildTime,
				},
				ToolVersions: probeToolVersions(ctx, AppConfig, registry.Default()),
				Plugins:      shared.ListPlugins(AppConfig),
			}

			printVersionInfo(cmd.OutOrStdout(), &version)
		},
	}
}

// probeToolVersions asks every built-in scanner for the version of its tool.
func probeToolVersions(ctx context.Context, cfg *config.Config, reg *registry.Registry) map[string]string {
	versions := make(map[string]string)
	for _, name := range reg.Names() {
		v, err := probeToolVersion(ctx, cfg, reg, name)
		if err != nil {
			versions[name] = fmt.Sprintf("unavailable (%v)", err)
			continue
		}
		versions[name] = v
	}
	return versions
}

func probeToolVersion(ctx context.Context, cfg *config.Config, reg *registry.Registry, name string) (string, error) {
	factory, err := reg.Lookup(name)
	if err != nil {
		return "", err
	}

	sc := factory(hclog.NewNullLogger())
	configData := config.Config{}
	if cfg != nil {
		configData = *cfg
	}
	if _, err := sc.Setup(configData); err != nil {
		return "", err
	}

	v, ok := sc.(versioner)
	if !ok {
		return "", errors.NewNotImplementedError("Version", name)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return v.Version(ctx)
}

// printVersionInfo prints the version information for the core application and the tools.
func printVersionInfo(w io.Writer, versions *CoreVersions) {
	fmt.Fprintf(w, "Core Version: v%s\n", versions.Versions.Version)
	fmt.Fprintln(w, "Tool Versions:")
	for _, name := range registry.Default().Names() {
		if v, ok := versions.ToolVersions[name]; ok {
			fmt.Fprintf(w, "  %s: %s\n", name, v)
		}
	}
	if len(versions.Plugins) > 0 {
		fmt.Fprintln(w, "Installed Plugins:")
		for _, p := range versions.Plugins {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	fmt.Fprintf(w, "Go Version: %s\n", versions.Versions.GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", versions.Versions.BuildTime)
}
