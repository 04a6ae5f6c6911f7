package shared

import (
	"sort"
	"time"

	"github.com/scan-io-git/scanio-gate/pkg/shared/report"
	"github.com/scan-io-git/scanio-gate/pkg/shared/verdict"
)

const (
	SourceBuiltin = "builtin"
	SourcePlugin  = "plugin"
)

// RepositoryMetadata describes the scanned target.
type RepositoryMetadata struct {
	Path       string `json:"path"`
	Branch     string `json:"branch,omitempty"`
	Commit     string `json:"commit,omitempty"`
	RemoteURL  string `json:"remote_url,omitempty"`
	VCSHost    string `json:"vcs_host,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Repository string `json:"repository,omitempty"`
	GoModule   string `json:"go_module,omitempty"`
	GoVersion  string `json:"go_version,omitempty"`

	CIProvider  string `json:"ci_provider,omitempty"`
	PullRequest string `json:"pull_request,omitempty"`
}

// LaunchResult is the outcome of one scanner launch.
type LaunchResult struct {
	ID       string             `json:"id"`
	Scanner  string             `json:"scanner"`
	Source   string             `json:"source"`
	Args     ScannerScanRequest `json:"args"`
	Status   string             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Duration time.Duration      `json:"duration"`
	Result   *report.Report     `json:"result,omitempty"`
}

// Verdict returns the launch status as a verdict.
// Statuses that are not a known verdict count as a tool error.
func (l LaunchResult) Verdict() verdict.Verdict {
	v, err := verdict.Parse(l.Status)
	if err != nil {
		return verdict.FailedToolError
	}
	return v
}

// LaunchesResult aggregates every launch of one run.
type LaunchesResult struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Target    RepositoryMetadata `json:"target"`
	Launches  []LaunchResult     `json:"launches"`
}

// Failed reports whether any launch ended with a failure verdict.
func (r LaunchesResult) Failed() bool {
	for _, l := range r.Launches {
		if l.Verdict().IsFailure() {
			return true
		}
	}
	return false
}

// SortLaunches orders launches by scanner name.
func (r *LaunchesResult) SortLaunches() {
	sort.SliceStable(r.Launches, func(i, j int) bool {
		return r.Launches[i].Scanner < r.Launches[j].Scanner
	})
}

// Counts returns the number of launches per status.
func (r LaunchesResult) Counts() map[string]int {
	counts := make(map[string]int)
	for _, l := range r.Launches {
		counts[l.Status]++
	}
	return counts
}
