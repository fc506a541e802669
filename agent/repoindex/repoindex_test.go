package repoindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		".gitignore":               "*.log\n__pycache__/\n",
		"src/calculator.py":        "def divide(a, b):\n    return a / b\n",
		"src/__pycache__/mod.pyc":  "binary",
		"tests/test_calculator.py": "def test_add():\n    assert 1 + 1 == 2\n",
		"README.md":                "# demo\n",
		"debug.log":                "ignored\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	return root
}

func TestListFiles(t *testing.T) {
	t.Parallel()
	idx := New(newTestRepo(t))

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{
			name:    "all files skip git and ignored",
			pattern: "",
			want:    []string{".gitignore", "README.md", "src/calculator.py", "tests/test_calculator.py"},
		},
		{
			name:    "python glob",
			pattern: "**/*.py",
			want:    []string{"src/calculator.py", "tests/test_calculator.py"},
		},
		{
			name:    "single directory",
			pattern: "src/*",
			want:    []string{"src/calculator.py"},
		},
		{
			name:    "no matches",
			pattern: "**/*.go",
			want:    nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := idx.ListFiles(tt.pattern)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSearchContent(t *testing.T) {
	t.Parallel()
	idx := New(newTestRepo(t))

	matches, err := idx.SearchContent("def divide", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "src/calculator.py", matches[0].Path)
	require.Equal(t, 1, matches[0].Line)
	require.Equal(t, "def divide(a, b):", matches[0].Text)
}

func TestSearchContentLimit(t *testing.T) {
	t.Parallel()
	idx := New(newTestRepo(t))

	matches, err := idx.SearchContent("def ", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestSearchContentSkipsIgnored(t *testing.T) {
	t.Parallel()
	idx := New(newTestRepo(t))

	matches, err := idx.SearchContent("ignored", 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}
