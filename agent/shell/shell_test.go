package shell

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecCapturesStdout(t *testing.T) {
	t.Parallel()

	sh := NewShell(&Options{WorkingDir: t.TempDir()})
	stdout, stderr, code, err := sh.Exec(context.Background(), "echo hello")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hello\n", stdout)
	require.Empty(t, stderr)
}

func TestExecNonzeroExitIsNotAnError(t *testing.T) {
	t.Parallel()

	sh := NewShell(&Options{WorkingDir: t.TempDir()})
	_, _, code, err := sh.Exec(context.Background(), "exit 7")
	require.NoError(t, err)
	require.Equal(t, 7, code)
}

func TestExecCapturesStderr(t *testing.T) {
	t.Parallel()

	sh := NewShell(&Options{WorkingDir: t.TempDir()})
	stdout, stderr, code, err := sh.Exec(context.Background(), "echo oops 1>&2")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Empty(t, stdout)
	require.Equal(t, "oops\n", stderr)
}

func TestExecRunsInWorkingDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("m"), 0o644))

	sh := NewShell(&Options{WorkingDir: dir})
	stdout, _, code, err := sh.Exec(context.Background(), "ls")
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "marker.txt")
}

func TestExecParseError(t *testing.T) {
	t.Parallel()

	sh := NewShell(&Options{WorkingDir: t.TempDir()})
	_, _, _, err := sh.Exec(context.Background(), "if then fi")
	require.Error(t, err)
}

func TestExecTimeout(t *testing.T) {
	t.Parallel()

	sh := NewShell(&Options{WorkingDir: t.TempDir(), Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, _, code, err := sh.Exec(context.Background(), "sleep 5")
	require.Less(t, time.Since(start), 5*time.Second)
	if err == nil {
		require.NotEqual(t, 0, code)
	}
}
