// Package ci reads repository metadata exposed by CI providers.
package ci

import (
	"net/url"
	"os"
	"strings"
)

// Provider identifies a CI system.
type Provider string

const (
	Unknown   Provider = ""
	GitHub    Provider = "github"
	GitLab    Provider = "gitlab"
	Bitbucket Provider = "bitbucket"
)

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// Environment is the repository state a CI job runs against.
type Environment struct {
	Provider      Provider
	Commit        string // Tip commit of the job
	Reference     string // Fully qualified reference, e.g. refs/heads/main
	Branch        string // Short branch or tag name, empty for pull request refs
	ServerURL     string // Scheme and host of the VCS server
	Namespace     string
	Repository    string
	RepositoryURL string
	PullRequest   string
}

// Host returns the VCS host taken from the server or repository URL.
func (e Environment) Host() string {
	for _, src := range []string{e.ServerURL, e.RepositoryURL} {
		if u, err := url.Parse(strings.TrimSpace(src)); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

// Detect reads the environment of the current CI provider.
// The second value is false outside of a known provider.
func Detect(lookup LookupFunc) (Environment, bool) {
	if lookup == nil {
		lookup = os.Getenv
	}

	switch {
	case lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "":
		return github(lookup), true
	case strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "":
		return gitlab(lookup), true
	case lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "":
		return bitbucket(lookup), true
	}
	return Environment{}, false
}

// See https://docs.github.com/en/actions/reference/workflows-and-actions/variables.
func github(lookup LookupFunc) Environment {
	env := Environment{
		Provider:  GitHub,
		Commit:    lookup("GITHUB_SHA"),
		Reference: lookup("GITHUB_REF"),
		ServerURL: lookup("GITHUB_SERVER_URL"),
		Namespace: lookup("GITHUB_REPOSITORY_OWNER"),
	}

	fullName := lookup("GITHUB_REPOSITORY")
	if owner, name, ok := strings.Cut(fullName, "/"); ok {
		env.Repository = name
		if env.Namespace == "" {
			env.Namespace = owner
		}
	}
	if env.ServerURL != "" && fullName != "" {
		env.RepositoryURL = strings.TrimSuffix(env.ServerURL, "/") + "/" + fullName
	}

	env.PullRequest = pullRequestFromRef(env.Reference)
	if env.PullRequest == "" {
		env.Branch = lookup("GITHUB_REF_NAME")
	} else {
		env.Branch = lookup("GITHUB_HEAD_REF")
	}
	return env
}

// See https://docs.gitlab.com/ci/variables/predefined_variables/.
func gitlab(lookup LookupFunc) Environment {
	env := Environment{
		Provider:      GitLab,
		Commit:        lookup("CI_COMMIT_SHA"),
		ServerURL:     lookup("CI_SERVER_URL"),
		Namespace:     lookup("CI_PROJECT_NAMESPACE"),
		Repository:    lookup("CI_PROJECT_NAME"),
		RepositoryURL: lookup("CI_PROJECT_URL"),
	}

	switch {
	case lookup("CI_COMMIT_TAG") != "":
		env.Branch = lookup("CI_COMMIT_TAG")
		env.Reference = "refs/tags/" + env.Branch
	case lookup("CI_MERGE_REQUEST_IID") != "":
		env.PullRequest = lookup("CI_MERGE_REQUEST_IID")
		env.Reference = lookup("CI_MERGE_REQUEST_REF_PATH")
		env.Branch = lookup("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME")
	case lookup("CI_COMMIT_REF_NAME") != "":
		env.Branch = lookup("CI_COMMIT_REF_NAME")
		env.Reference = "refs/heads/" + env.Branch
	}
	return env
}

// See https://support.atlassian.com/bitbucket-cloud/docs/variables-and-secrets/.
func bitbucket(lookup LookupFunc) Environment {
	env := Environment{
		Provider:      Bitbucket,
		Commit:        lookup("BITBUCKET_COMMIT"),
		Namespace:     lookup("BITBUCKET_WORKSPACE"),
		Repository:    lookup("BITBUCKET_REPO_SLUG"),
		RepositoryURL: lookup("BITBUCKET_GIT_HTTP_ORIGIN"),
		PullRequest:   lookup("BITBUCKET_PR_ID"),
	}
	if u, err := url.Parse(env.RepositoryURL); err == nil && u.Scheme != "" && u.Host != "" {
		env.ServerURL = u.Scheme + "://" + u.Host
	}

	switch {
	case lookup("BITBUCKET_TAG") != "":
		env.Branch = lookup("BITBUCKET_TAG")
		env.Reference = "refs/tags/" + env.Branch
	case lookup("BITBUCKET_BRANCH") != "":
		env.Branch = lookup("BITBUCKET_BRANCH")
		env.Reference = "refs/heads/" + env.Branch
	case env.PullRequest != "":
		env.Reference = "refs/pull/" + env.PullRequest
	}
	return env
}

// pullRequestFromRef extracts the number of refs/pull/N/... and refs/merge-requests/N/... references.
func pullRequestFromRef(ref string) string {
	parts := strings.Split(ref, "/")
	for i := 0; i+1 < len(parts); i++ {
		if (parts[i] == "pull" || parts[i] == "merge-requests") && allDigits(parts[i+1]) {
			return parts[i+1]
		}
	}
	return ""
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
