package validation

import (
	"fmt"
	"os"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/files"
)

// ValidateScanArgs checks the necessary fields in ScannerScanRequest and returns errors if they are not set.
// Paths are expanded in place.
func ValidateScanArgs(args *shared.ScannerScanRequest) error {
	if args.TargetPath == "" {
		return fmt.Errorf("target path is required")
	}

	expandedPath, err := files.ExpandPath(args.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to expand path '%s': %w", args.TargetPath, err)
	}
	if err := files.ValidateFolder(expandedPath); err != nil {
		return fmt.Errorf("target path is invalid: %w", err)
	}
	args.TargetPath = expandedPath

	if args.ConfigPath != "" {
		expandedConfig, err := files.ExpandPath(args.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to expand path '%s': %w", args.ConfigPath, err)
		}
		if _, err := os.Stat(expandedConfig); err != nil {
			return fmt.Errorf("config path does not exist: %s", expandedConfig)
		}
		args.ConfigPath = expandedConfig
	}

	return nil
}
