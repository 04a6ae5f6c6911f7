package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
	"github.com/scan-io-git/scanio-gate/pkg/shared/config"
	"github.com/scan-io-git/scanio-gate/pkg/shared/files"
)

// GetArtifactName returns the base name of a result file.
// Example: scan_gosec_2025-09-15T08:28:46Z.
func GetArtifactName(command, scanners string, t time.Time) string {
	ts := t.UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s_%s_%s", command, scanners, ts)
}

// DefaultResultPath returns the path of a result file in the results folder.
func DefaultResultPath(cfg *config.Config, command, scanners, ext string, t time.Time) string {
	return filepath.Join(config.GetScanioResultsHome(cfg), GetArtifactName(command, scanners, t)+ext)
}

// SaveResultJSON writes the aggregate result to path, creating the parent folder when needed.
func SaveResultJSON(logger hclog.Logger, path string, result shared.LaunchesResult) error {
	resultData, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the result data: %w", err)
	}

	if err := SaveBytes(logger, path, resultData); err != nil {
		return err
	}
	return nil
}

// SaveBytes writes an already encoded artifact to path.
func SaveBytes(logger hclog.Logger, path string, data []byte) error {
	if err := files.CreateFolderIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}
	if err := files.WriteJsonFile(path, data); err != nil {
		return fmt.Errorf("error writing result to file: %w", err)
	}
	logger.Info("result saved to file", "path", path)
	return nil
}
