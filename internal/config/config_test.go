package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REHABGRID_CONFIG_PATH",
		"REHABGRID_DB_PATH",
		"REHABGRID_LOG_LEVEL",
		"REHABGRID_LOG_PATH",
		"REHABGRID_AUTOSAVE_DELAY",
		"REHABGRID_ASSETS_DIR",
		"REHABGRID_ASSETS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 2*time.Second, cfg.Autosave.Delay)
	require.Equal(t, 15, cfg.Import.MaxArchiveImages)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  path: /var/lib/rehab/file.db
log:
  level: debug
autosave:
  delay: 500ms
  retry_delay: 1s
assets:
  url: https://example.com/static
`), 0o600))

	t.Setenv("REHABGRID_CONFIG_PATH", path)
	t.Setenv("REHABGRID_DB_PATH", "/tmp/env.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 500*time.Millisecond, cfg.Autosave.Delay)
	require.Equal(t, time.Second, cfg.Autosave.RetryDelay)
	require.Equal(t, "https://example.com/static", cfg.Assets.URL)
	require.Equal(t, "templates", cfg.Assets.TemplateRoot)
}

func TestLoad_AutosaveDelayEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("REHABGRID_AUTOSAVE_DELAY", "750")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 750*time.Millisecond, cfg.Autosave.Delay)

	t.Setenv("REHABGRID_AUTOSAVE_DELAY", "3s")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Autosave.Delay)

	t.Setenv("REHABGRID_AUTOSAVE_DELAY", "soon")
	_, err = Load()
	require.ErrorContains(t, err, "REHABGRID_AUTOSAVE_DELAY")
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("REHABGRID_ASSETS_URL", "ftp://example.com")
	_, err := Load()
	require.ErrorContains(t, err, "assets.url")

	t.Setenv("REHABGRID_ASSETS_URL", "")
	t.Setenv("REHABGRID_AUTOSAVE_DELAY", "0")
	_, err = Load()
	require.ErrorContains(t, err, "autosave.delay")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("REHABGRID_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
