package sarif

import (
	"path"
	"strconv"
	"strings"

	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

// PermalinkBuilder returns a web URL for a file region, or "" when none can be built.
type PermalinkBuilder func(file string, start, end int) string

// NewPermalinkBuilder builds links for repositories hosted on a known VCS.
// Metadata without host, repository or commit yields a builder that always returns "".
func NewPermalinkBuilder(meta shared.RepositoryMetadata) PermalinkBuilder {
	if meta.VCSHost == "" || meta.Repository == "" || meta.Commit == "" {
		return func(string, int, int) string { return "" }
	}

	base := "https://" + path.Join(meta.VCSHost, meta.Namespace, meta.Repository)
	bitbucket := strings.Contains(meta.VCSHost, "bitbucket")

	return func(file string, start, end int) string {
		file = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(file, "\\", "/")), "/")
		if file == "" || file == "." {
			return ""
		}
		if bitbucket {
			return base + "/src/" + meta.Commit + "/" + file + bitbucketAnchor(file, start, end)
		}
		return base + "/blob/" + meta.Commit + "/" + file + genericAnchor(start, end)
	}
}

func genericAnchor(start, end int) string {
	if start <= 0 {
		return ""
	}
	anchor := "#L" + strconv.Itoa(start)
	if end > start {
		anchor += "-L" + strconv.Itoa(end)
	}
	return anchor
}

func bitbucketAnchor(file string, start, end int) string {
	if start <= 0 {
		return ""
	}
	anchor := "#" + path.Base(file) + "-" + strconv.Itoa(start)
	if end > start {
		anchor += ":" + strconv.Itoa(end)
	}
	return anchor
}
