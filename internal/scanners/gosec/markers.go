package gosec

import (
	"github.com/scan-io-git/scanio-gate/pkg/shared/repository"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

// Marker names of the built-in table.
const (
	MarkerNoPackages   = "no-packages"
	MarkerZeroLines    = "zero-lines"
	MarkerGolangErrors = "golang-errors"
	MarkerIssue        = "issue"
)

// applicabilityMarkers are the file extensions and manifests that make a repository a Go project.
var applicabilityMarkers = []string{".go", "go.mod", "go.sum", "Gopkg.toml", "Gopkg.lock"}

// ShouldRun reports whether root holds Go sources or Go dependency manifests at any depth.
func ShouldRun(root string) bool {
	return repository.New(root).HasFileType(applicabilityMarkers...)
}

// DefaultTable returns the markers used to classify gosec -fmt=json runs.
func DefaultTable() verdict.Table {
	return verdict.Table{
		verdict.MustMarker(MarkerNoPackages, `No packages found`, verdict.Stderr, verdict.FailedToolError),
		verdict.MustMarker(MarkerZeroLines, `"lines":\s*0\s*[,}]`, verdict.Stdout, verdict.FailedToolError),
		verdict.MustMarker(MarkerGolangErrors, `"Golang errors":\s*\{\s*"`, verdict.Stdout, verdict.FailedTargetBroken),
		verdict.MustMarker(MarkerIssue, `"details":\s*"((?:[^"\\]|\\.)*)"`, verdict.Stdout, verdict.FailedWithFindings),
	}
}
