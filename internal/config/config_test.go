package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Upload.DuplicateWindow)
	assert.Equal(t, 640, cfg.Thumbnail.Width)
	assert.Equal(t, 360, cfg.Thumbnail.Height)
	assert.True(t, cfg.Upload.Music.Allows("audio/mpeg"))
	assert.False(t, cfg.Upload.Music.Allows("video/mp4"))
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
  env: production
jwt:
  secret: from-file
upload:
  duplicate_window: 30
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/twobeats")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Upload.DuplicateWindow)
	// untouched sections keep their defaults
	assert.Equal(t, 85, cfg.Thumbnail.Quality)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Upload.Video.MaxSize, cfg.Upload.Video.MaxSize)
}
