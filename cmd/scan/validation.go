package scan

import (
	"fmt"
	"os"
	"strings"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(options *RunOptionsScan, args []string, argsLenAtDash int) error {
	positional := args
	if argsLenAtDash > -1 {
		options.AdditionalArgs = args[argsLenAtDash:]
		positional = args[:argsLenAtDash]
	}

	if len(positional) == 0 {
		return fmt.Errorf("a target path must be specified")
	}
	if len(positional) > 1 {
		return fmt.Errorf("only one target path can be scanned at a time, got %d", len(positional))
	}

	targetPath := positional[0]
	info, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("the target path does not exist: %v", targetPath)
	}
	if err != nil {
		return fmt.Errorf("failed to check the target path %q: %w", targetPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("the target path must be a directory: %v", targetPath)
	}

	if options.Jobs <= 0 {
		return fmt.Errorf("the 'jobs' flag must be a positive integer")
	}

	options.ReportFormat = strings.ToLower(strings.TrimSpace(options.ReportFormat))
	if options.ReportFormat == "" {
		options.ReportFormat = FormatJSON
	}
	if options.ReportFormat != FormatJSON && options.ReportFormat != FormatSARIF {
		return fmt.Errorf("unsupported report format %q, use %q or %q", options.ReportFormat, FormatJSON, FormatSARIF)
	}

	for _, name := range options.Scanners {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("scanner names must not be empty")
		}
	}

	return nil
}
