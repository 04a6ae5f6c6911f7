package repository

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

var errFound = errors.New("marker found")

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// Inspector answers file presence queries for a repository root.
type Inspector struct {
	root string
}

// New creates an Inspector for the given root folder.
func New(root string) *Inspector {
	return &Inspector{root: root}
}

// Root returns the inspected folder.
func (i *Inspector) Root() string {
	return i.root
}

// HasFileType reports whether any file under the root, at any depth, matches one of markers.
// A marker starting with a dot is an extension (".go"), anything else is an exact file name ("go.mod").
// Unreadable folders are treated as containing nothing.
func (i *Inspector) HasFileType(markers ...string) bool {
	if i.root == "" || len(markers) == 0 {
		return false
	}

	exts, names := splitMarkers(markers)

	err := filepath.WalkDir(i.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != i.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && path != i.root {
				return fs.SkipDir
			}
			return nil
		}
		if matches(d.Name(), exts, names) {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}

func splitMarkers(markers []string) (map[string]struct{}, map[string]struct{}) {
	exts := make(map[string]struct{})
	names := make(map[string]struct{})
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.HasPrefix(m, ".") {
			exts[strings.ToLower(m)] = struct{}{}
		} else {
			names[m] = struct{}{}
		}
	}
	return exts, names
}

func matches(name string, exts, names map[string]struct{}) bool {
	if _, ok := names[name]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := exts[ext]
	return ok
}
