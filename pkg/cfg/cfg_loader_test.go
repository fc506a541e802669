package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConf struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := "server:\n  host: 127.0.0.1\n  port: 8888\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte(raw), 0o644))

	var c testConf
	require.NoError(t, LoadConfig(dir, "app", "yaml", &c))
	require.Equal(t, "127.0.0.1", c.Server.Host)
	require.Equal(t, 8888, c.Server.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	var c testConf
	err := LoadConfig(t.TempDir(), "absent", "yaml", &c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "读取配置文件失败")
}

func TestLoadConfigDoesNotShareState(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "app.yaml"), []byte("server:\n  host: a\n"), 0o644))
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, "app.yaml"), []byte("server:\n  port: 9"), 0o644))

	var a, b testConf
	require.NoError(t, LoadConfig(first, "app", "yaml", &a))
	require.NoError(t, LoadConfig(second, "app", "yaml", &b))
	require.Empty(t, b.Server.Host)
	require.Equal(t, 9, b.Server.Port)
}
