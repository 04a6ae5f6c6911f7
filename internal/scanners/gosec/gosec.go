package gosec

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/core"
	"github.com/scan-io-git/scanio-gate/pkg/shared/executor"
	"github.com/scan-io-git/scanio-gate/pkg/shared/validation"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

const (
	PluginName    = "gosec"
	DefaultBinary = "gosec"

	// OptionPackages overrides the package pattern passed to gosec.
	OptionPackages = "packages"
	// OptionTests makes gosec scan test files when set to "true".
	OptionTests = "tests"

	defaultPackages = "./..."
)

var versionRegexp = regexp.MustCompile(`Version:\s*(\S+)`)

// Scanner runs gosec and classifies its output.
type Scanner struct {
	logger       hclog.Logger
	globalConfig *config.Config
	name         string
	table        verdict.Table
	executor     *executor.Executor
}

// New creates a gosec scanner with the built-in marker table.
func New(logger hclog.Logger) *Scanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{
		logger:   logger,
		name:     PluginName,
		table:    DefaultTable(),
		executor: executor.New(logger),
	}
}

// Setup stores the global configuration and appends configured markers to the table.
func (g *Scanner) Setup(configData config.Config) (bool, error) {
	g.globalConfig = &configData

	extra, err := configData.Scanner(g.name).MarkerTable()
	if err != nil {
		return false, fmt.Errorf("invalid %s markers: %w", g.name, err)
	}
	g.table = DefaultTable().With(extra...)
	return true, nil
}

// ShouldRun implements shared.Scanner.
func (g *Scanner) ShouldRun(args shared.ScannerScanRequest) (bool, error) {
	if err := validation.ValidateScanArgs(&args); err != nil {
		return false, err
	}
	return ShouldRun(args.TargetPath), nil
}

// Scan runs gosec once against the target. Tool failures end up in the report, only invalid requests return an error.
func (g *Scanner) Scan(args shared.ScannerScanRequest) (shared.ScannerScanResponse, error) {
	var result shared.ScannerScanResponse
	g.logger.Info("gosec scan starting", "project", args.TargetPath)
	g.logger.Debug("debug info", "args", args)

	if err := validation.ValidateScanArgs(&args); err != nil {
		g.logger.Error("validation failed for scan operation", "error", err)
		return result, err
	}

	outcome := g.tool().Scan(context.Background(), args.TargetPath, g.commandArgs(args))

	result.Verdict = outcome.Verdict.String()
	result.Report = outcome.Report
	g.logger.Info("scan finished", "project", args.TargetPath, "verdict", result.Verdict)
	return result, nil
}

// Version runs "gosec -version" and returns the reported version.
func (g *Scanner) Version(ctx context.Context) (string, error) {
	res, err := g.executor.Execute(ctx, executor.Command{
		Name:    g.settings().binary(),
		Args:    []string{"-version"},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return "", err
	}

	out := res.Stdout + res.Stderr
	if m := versionRegexp.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	if res.ExitStatus != 0 {
		return "", fmt.Errorf("gosec -version exited with status %d", res.ExitStatus)
	}
	return strings.TrimSpace(out), nil
}

// tool assembles the core tool from the current settings.
func (g *Scanner) tool() *core.Tool {
	sc := g.settings()
	return &core.Tool{
		Name:      g.name,
		Binary:    sc.binary(),
		Args:      append([]string{"-fmt=json"}, sc.Args...),
		Timeout:   config.SetThen(sc.Timeout, config.DefaultScannerTimeout),
		Table:     g.table,
		Describer: describer{},
		Executor:  g.executor,
		Logger:    g.logger,
	}
}

// commandArgs places request arguments and options before the package pattern.
func (g *Scanner) commandArgs(args shared.ScannerScanRequest) []string {
	options := mergeOptions(g.settings().Options, args.Options)

	var commandArgs []string
	if args.ConfigPath != "" {
		commandArgs = append(commandArgs, "-conf", args.ConfigPath)
	}
	if strings.EqualFold(options[OptionTests], "true") {
		commandArgs = append(commandArgs, "-tests")
	}
	commandArgs = append(commandArgs, args.AdditionalArgs...)
	return append(commandArgs, config.SetThen(options[OptionPackages], defaultPackages))
}

type settings struct {
	config.ScannerConfig
}

func (g *Scanner) settings() settings {
	return settings{g.globalConfig.Scanner(g.name)}
}

func (s settings) binary() string {
	return config.SetThen(s.Binary, DefaultBinary)
}

// mergeOptions overlays request options on top of configured ones.
func mergeOptions(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
