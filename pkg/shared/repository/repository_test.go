package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHasFileType(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		markers []string
		want    bool
	}{
		{
			name:    "Empty repository",
			files:   nil,
			markers: []string{".go", "go.mod"},
			want:    false,
		},
		{
			name:    "Extension at root",
			files:   []string{"main.go"},
			markers: []string{".go"},
			want:    true,
		},
		{
			name:    "Extension nested deep",
			files:   []string{"a/b/c/d/handler.go"},
			markers: []string{".go"},
			want:    true,
		},
		{
			name:    "Manifest by name",
			files:   []string{"README.md", "go.sum"},
			markers: []string{".go", "go.mod", "go.sum"},
			want:    true,
		},
		{
			name:    "Extension matching is case insensitive",
			files:   []string{"legacy/MAIN.GO"},
			markers: []string{".go"},
			want:    true,
		},
		{
			name:    "Similar names do not match",
			files:   []string{"go.mod.bak", "main.gox", "gopher.txt"},
			markers: []string{".go", "go.mod"},
			want:    false,
		},
		{
			name:    "Files inside .git are ignored",
			files:   []string{".git/hooks/pre-commit.go"},
			markers: []string{".go"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, root, f, "package main\n")
			}
			assert.Equal(t, tt.want, New(root).HasFileType(tt.markers...))
		})
	}
}

func TestHasFileTypeMissingRoot(t *testing.T) {
	assert.False(t, New(filepath.Join(t.TempDir(), "missing")).HasFileType(".go"))
	assert.False(t, New("").HasFileType(".go"))
	assert.False(t, New(t.TempDir()).HasFileType())
}

func TestRoot(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, root, New(root).Root())
}
