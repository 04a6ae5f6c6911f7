package scan

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/internal/findings"
	"github.com/scan-io-git/scanio-gate/internal/registry"
	"github.com/scan-io-git/scanio-gate/internal/sarif"
	"github.com/scan-io-git/scanio-gate/internal/scanners/gosec"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/artifacts"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/files"
	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
)

// Report formats
const (
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

const gosecInformationURI = "https://github.com/securego/gosec"

// resultPaths holds the locations of the result files of one run.
type resultPaths struct {
	JSON  string
	SARIF string
}

// prepareResultPaths resolves where result files are written.
// Without an output path the results folder is used. CI runs get stable names without a timestamp.
func prepareResultPaths(cfg *config.Config, options *RunOptionsScan, result shared.LaunchesResult, t time.Time) (resultPaths, error) {
	var scanners []string
	for _, l := range result.Launches {
		scanners = append(scanners, l.Scanner)
	}
	joined := strings.Join(scanners, "-")

	name := artifacts.GetArtifactName("scan", joined, t)
	fullPath := artifacts.DefaultResultPath(cfg, "scan", joined, "."+FormatJSON, t)
	if config.IsCI(cfg) {
		name = fmt.Sprintf("scan_%s", joined)
		fullPath = filepath.Join(config.GetScanioResultsHome(cfg), name+"."+FormatJSON)
	}
	if options.OutputPath != "" {
		var err error
		fullPath, _, err = files.DetermineFileFullPath(options.OutputPath, name+"."+FormatJSON)
		if err != nil {
			return resultPaths{}, err
		}
	}

	base := strings.TrimSuffix(fullPath, filepath.Ext(fullPath))
	return resultPaths{
		JSON:  base + "." + FormatJSON,
		SARIF: base + "." + FormatSARIF,
	}, nil
}

// writeResults saves the JSON result and, when requested, the SARIF report. It returns the written paths.
func writeResults(logger hclog.Logger, result shared.LaunchesResult, format string, paths resultPaths) ([]string, error) {
	if err := artifacts.SaveResultJSON(logger, paths.JSON, result); err != nil {
		return nil, err
	}
	written := []string{paths.JSON}

	if format != FormatSARIF {
		return written, nil
	}

	data, err := buildSARIF(logger, result)
	if err != nil {
		return written, err
	}
	if err := artifacts.SaveBytes(logger, paths.SARIF, data); err != nil {
		return written, err
	}
	return append(written, paths.SARIF), nil
}

// buildSARIF converts the findings of every gosec launch into a SARIF document.
func buildSARIF(logger hclog.Logger, result shared.LaunchesResult) ([]byte, error) {
	sarifReport, err := sarif.NewReport(logger)
	if err != nil {
		return nil, err
	}

	for _, l := range result.Launches {
		if l.Result == nil {
			continue
		}
		if l.Scanner != gosec.PluginName {
			logger.Debug("no findings parser for scanner, skipping sarif run", "scanner", l.Scanner)
			continue
		}

		output, err := gosec.ParseOutput(l.Result.Info[report.InfoStdout])
		if err != nil {
			logger.Warn("failed to parse gosec output, skipping sarif run", "launch", l.ID, "error", err)
			continue
		}

		fs := output.Findings(result.Target.Path)
		logger.Debug("gosec findings parsed", "launch", l.ID, "total", len(fs), "active", len(findings.Active(fs)), "bySeverity", findings.CountBySeverity(fs))

		sarifReport.AddFindingsRun(sarif.ToolMetadata{
			Name:           gosec.PluginName,
			Version:        output.GosecVersion,
			InformationURI: gosecInformationURI,
		}, fs, result.Target)
	}

	sarifReport.SortResultsByLevel()
	logger.Debug("sarif report prepared", "severities", sarifReport.CollectSeverityInfo())
	return sarifReport.Bytes()
}

// printSummary writes one line per launch followed by the totals.
func printSummary(w io.Writer, result shared.LaunchesResult, written []string) {
	fmt.Fprintf(w, "Run %s on %s\n", result.RunID, result.Target.Path)
	for _, l := range result.Launches {
		line := fmt.Sprintf("  %-12s %-22s %s", l.Scanner, l.Status, l.Duration.Round(time.Millisecond))
		if l.Message != "" {
			line += "  " + firstLine(l.Message)
		}
		fmt.Fprintln(w, line)
	}

	counts := result.Counts()
	fmt.Fprintf(w, "Total: %d, passed: %d, skipped: %d, failed: %d\n",
		len(result.Launches), counts["PASSED"], counts["SKIPPED"], countFailed(result))
	for _, path := range written {
		fmt.Fprintf(w, "Result saved to %s\n", path)
	}
}

// countFailed returns the number of launches with a failure verdict.
func countFailed(result shared.LaunchesResult) int {
	failed := 0
	for _, l := range result.Launches {
		if l.Verdict().IsFailure() {
			failed++
		}
	}
	return failed
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// availableScanners lists built-in scanners followed by installed plugins.
func availableScanners(cfg *config.Config) []string {
	names := registry.Default().Names()
	for _, p := range shared.ListPlugins(cfg) {
		if !shared.IsInList(p, names) {
			names = append(names, p)
		}
	}
	return names
}
