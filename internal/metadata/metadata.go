package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/modfile"

	"github.com/scan-io-git/scanio-gate/internal/ci"
	"github.com/scan-io-git/scanio-gate/pkg/shared"
)

// ErrNotRepository is returned when the target is not inside a git work tree.
var ErrNotRepository = errors.New("target is not inside a git repository")

// Collect gathers repository metadata for target.
// Missing git or module information is not an error: the matching fields stay empty.
// Inside a CI job the provider variables fill what git could not tell, such as the branch of a detached HEAD.
func Collect(logger hclog.Logger, target string) shared.RepositoryMetadata {
	return collect(logger, target, os.Getenv)
}

func collect(logger hclog.Logger, target string, lookup ci.LookupFunc) shared.RepositoryMetadata {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	md := shared.RepositoryMetadata{Path: target}
	if abs, err := filepath.Abs(target); err == nil {
		md.Path = abs
	}

	if err := collectGit(&md); err != nil {
		logger.Debug("git metadata is not available", "target", md.Path, "reason", err)
	}
	if err := collectGoModule(&md); err != nil {
		logger.Debug("go module metadata is not available", "target", md.Path, "reason", err)
	}
	if env, ok := ci.Detect(lookup); ok {
		logger.Debug("ci environment detected", "provider", env.Provider)
		applyCI(&md, env)
	}
	return md
}

// applyCI fills fields git left empty from the CI environment.
func applyCI(md *shared.RepositoryMetadata, env ci.Environment) {
	md.CIProvider = string(env.Provider)
	md.PullRequest = env.PullRequest

	if md.Commit == "" {
		md.Commit = env.Commit
	}
	if md.Branch == "" {
		md.Branch = env.Branch
	}
	if md.RemoteURL == "" {
		md.RemoteURL = env.RepositoryURL
	}
	if md.VCSHost == "" {
		md.VCSHost = env.Host()
	}
	if md.Namespace == "" {
		md.Namespace = env.Namespace
	}
	if md.Repository == "" {
		md.Repository = env.Repository
	}
}

// collectGit reads branch, commit and origin of the repository holding md.Path.
func collectGit(md *shared.RepositoryMetadata) error {
	repo, err := git.PlainOpenWithOptions(md.Path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return ErrNotRepository
		}
		return fmt.Errorf("failed to open repository: %w", err)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.Commit = head.Hash().String()
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil
	}
	md.RemoteURL = cfg.URLs[0]

	return applyRemote(md, md.RemoteURL)
}

// applyRemote fills host, namespace and repository name from a clone URL.
func applyRemote(md *shared.RepositoryMetadata, remoteURL string) error {
	info, err := vcsurl.Parse(remoteURL)
	if err != nil {
		return fmt.Errorf("unable to parse remote %q: %w", remoteURL, err)
	}

	md.VCSHost = string(info.Host)
	md.Repository = info.Name
	md.Namespace = strings.Trim(strings.TrimSuffix(info.FullName, info.Name), "/")
	if md.Namespace == "" {
		md.Namespace = info.Username
	}
	return nil
}

// collectGoModule reads the module path and go directive of the root go.mod.
func collectGoModule(md *shared.RepositoryMetadata) error {
	path := filepath.Join(md.Path, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", path, err)
	}
	if f.Module != nil {
		md.GoModule = f.Module.Mod.Path
	}
	if f.Go != nil {
		md.GoVersion = f.Go.Version
	}
	return nil
}
