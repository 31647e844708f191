package filesource

import (
	"context"
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

func TestWalker_ListFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "docs/guide.txt", "guide")
	writeFile(t, root, "docs/draft.txt", "draft")
	writeFile(t, root, "node_modules/pkg/index.md", "ignored")
	writeFile(t, root, "notes/debug.log", "log")
	writeFile(t, root, "big.txt", "0123456789ABCDEF")
	writeFile(t, root, ".polidexignore", "# drafts\ndocs/draft.txt\n")

	w := NewWalker(WithMaxFileSize(10))
	files, err := w.ListFiles(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"README.md", "docs/guide.txt"}, paths)
}

func TestWalker_NotDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	_, err := NewWalker().ListFiles(context.Background(), filepath.Join(root, "a.txt"))
	assert.Error(t, err)
}

func TestIgnoreFilter_Defaults(t *testing.T) {
	f, err := NewIgnoreFilter(t.TempDir(), "*.bak")
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{".git/config", true},
		{"vendor/a.md", true},
		{".env", true},
		{"old.bak", true},
		{"docs/guide.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ShouldIgnore(tt.path))
		})
	}
}
