package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"twobeats/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "none"})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")

	out, err := execute(t, "config", "generate", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")

	path := filepath.Join(dir, "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.Port, cfg.Server.Port)

	_, err = execute(t, "config", "generate", "--output", dir)
	assert.Error(t, err, "existing file is kept without --overwrite")

	require.NoError(t, os.WriteFile(path, []byte("junk: true\n"), 0o644))
	_, err = execute(t, "config", "generate", "--output", dir, "--overwrite")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "junk")
}

func TestMigrate_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "twobeats.db"))

	require.NoError(t, config.WriteDefault(cfgPath, false))

	out, err := execute(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migration complete")
	assert.FileExists(t, filepath.Join(dir, "twobeats.db"))
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test.none")
}
