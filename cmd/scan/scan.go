package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/internal/scanner"
	"github.com/scan-io-git/scanio-gate/internal/uploader"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/errors"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	Scanners       []string
	ScannerConfig  string
	ReportFormat   string
	OutputPath     string
	Options        map[string]string
	Jobs           int
	Force          bool
	Upload         bool
	AdditionalArgs []string
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	logger           hclog.Logger
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Running every built-in scanner on a specific path
  scanio-gate scan /path/to/my_project

  # Running gosec and writing a SARIF report next to the JSON result
  scanio-gate scan --scanner gosec --format sarif /path/to/my_project

  # Running gosec even if the project has no Go files
  scanio-gate scan --scanner gosec --force /path/to/my_project

  # Running gosec with a gosec configuration file and additional arguments
  scanio-gate scan --scanner gosec --config /path/to/gosec.json /path/to/my_project -- -exclude=G104

  # Scanning test files of selected packages and saving the result to a specific file
  scanio-gate scan -s gosec --option tests=true --option packages=./cmd/... -o /path/to/result.json /path/to/my_project

  # Uploading the result to the configured collector
  scanio-gate scan --upload /path/to/my_project`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--scanner/-s NAME[,NAME]] [--config/-c PATH] [--format/-f json|sarif] [--output/-o PATH] [--jobs/-j N, default=1] [--force] [--upload] PATH -- [args...]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Runs scanners against a repository and classifies their results",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable and the command logger.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
	ScanCmd.Long = generateLongDescription(AppConfig)
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	if err := validateScanArgs(&scanOptions, args, cmd.ArgsLenAtDash()); err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return errors.NewUsageError("invalid scan arguments: %w", err)
	}
	targetPath := args[0]

	s := scanner.New(registry.Default(), scanner.Options{
		Scanners:       scanOptions.Scanners,
		ConfigPath:     scanOptions.ScannerConfig,
		AdditionalArgs: scanOptions.AdditionalArgs,
		ScanOptions:    scanOptions.Options,
		Jobs:           scanOptions.Jobs,
		Force:          scanOptions.Force,
	}, logger)

	if _, err := s.Resolve(AppConfig); err != nil {
		logger.Error("invalid scanner selection", "error", err)
		return errors.NewUsageError("invalid scanner selection: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scanResult, err := s.ScanRepo(ctx, AppConfig, targetPath)
	if err != nil {
		logger.Error("scan command failed", "error", err)
		return errors.NewCommandError(fmt.Errorf("scan command failed: %w", err), errors.ExitCodeFailure)
	}

	paths, err := prepareResultPaths(AppConfig, &scanOptions, scanResult, time.Now())
	if err != nil {
		logger.Error("failed to prepare result paths", "error", err)
		return errors.NewCommandErrorWithResult(scanResult, fmt.Errorf("failed to prepare result paths: %w", err), errors.ExitCodeFailure)
	}

	written, err := writeResults(logger, scanResult, scanOptions.ReportFormat, paths)
	if err != nil {
		logger.Error("failed to write result", "error", err)
		return errors.NewCommandErrorWithResult(scanResult, fmt.Errorf("failed to write result: %w", err), errors.ExitCodeFailure)
	}

	printSummary(cmd.OutOrStdout(), scanResult, written)

	if scanOptions.Upload {
		u, err := uploader.New(logger, AppConfig)
		if err != nil {
			logger.Error("failed to prepare upload", "error", err)
			return errors.NewCommandErrorWithResult(scanResult, fmt.Errorf("failed to prepare upload: %w", err), errors.ExitCodeUsage)
		}
		if err := u.Upload(ctx, scanResult); err != nil {
			logger.Error("failed to upload result", "error", err)
			return errors.NewCommandErrorWithResult(scanResult, err, errors.ExitCodeFailure)
		}
	}

	if scanResult.Failed() {
		return errors.NewCommandErrorWithResult(scanResult, fmt.Errorf("%d of %d scanner launches failed", countFailed(scanResult), len(scanResult.Launches)), errors.ExitCodeFailure)
	}

	logger.Info("scan command completed successfully")
	return nil
}

// generateLongDescription generates the long description with the list of available scanners.
func generateLongDescription(cfg *config.Config) string {
	return fmt.Sprintf(`Runs scanners against a repository and classifies their results.

Each scanner first checks whether the repository holds files it can analyse and is skipped otherwise.
A launch ends as PASSED, FAILED_WITH_FINDINGS, FAILED_TOOL_ERROR, FAILED_TARGET_BROKEN or SKIPPED.
The command exits with 1 when any launch failed.

List of available scanners:
  %s`, strings.Join(availableScanners(cfg), "\n  "))
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringSliceVarP(&scanOptions.Scanners, "scanner", "s", nil, "Names of the scanners to run. Every built-in scanner runs when omitted.")
	ScanCmd.Flags().StringVarP(&scanOptions.ScannerConfig, "config", "c", "", "Path to a configuration file passed to the scanners.")
	ScanCmd.Flags().StringVarP(&scanOptions.ReportFormat, "format", "f", FormatJSON, "Format of the result files: json or sarif. SARIF is written in addition to JSON.")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the output file or directory. The extension is set by the format.")
	ScanCmd.Flags().StringToStringVar(&scanOptions.Options, "option", nil, "Scanner specific option as key=value, e.g. tests=true.")
	ScanCmd.Flags().IntVarP(&scanOptions.Jobs, "jobs", "j", 1, "Number of scanners to run concurrently.")
	ScanCmd.Flags().BoolVar(&scanOptions.Force, "force", false, "Run scanners even when the repository has no applicable files.")
	ScanCmd.Flags().BoolVar(&scanOptions.Upload, "upload", false, "Upload the result to the configured collector.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
