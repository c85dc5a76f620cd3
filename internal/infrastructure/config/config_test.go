package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  allowed_origins:
    - http://example.com
storage:
  database_path: /tmp/test-ledger.db
import:
  max_rows: 100
  max_file_bytes: 1024
  dedup_window_days: 5
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/test-ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 100, cfg.Import.MaxRows)
	assert.Equal(t, int64(1024), cfg.Import.MaxFileBytes)
	assert.Equal(t, 5, cfg.Import.DedupWindowDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 5000, cfg.Import.MaxRows)
	assert.Equal(t, int64(10<<20), cfg.Import.MaxFileBytes)
	assert.Equal(t, 2, cfg.Import.DedupWindowDays)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_LEDGER_DB", "/data/expanded.db")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  database_path: ${TEST_LEDGER_DB}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/expanded.db", cfg.Storage.DatabasePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEDGER_PORT", "7070")
	t.Setenv("LEDGER_DB_PATH", "/data/env.db")
	t.Setenv("LEDGER_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg := LoadFromEnv()

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/data/env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5000, cfg.Import.MaxRows)
}

func TestLoadOrEnv_FallsBack(t *testing.T) {
	t.Setenv("LEDGER_PORT", "6060")

	cfg := LoadOrEnv("/nonexistent/config.yaml")
	assert.Equal(t, 6060, cfg.Server.Port)
}
