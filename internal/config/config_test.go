package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STATUSBOARD_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("STATUSBOARD_CONFIG_PATH", "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("STATUSBOARD_SPREADSHEET_ID", "sheet-123")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sheets", cfg.Source.Kind)
	require.Equal(t, "Ações", cfg.Source.Tabs.Tasks)
	require.Equal(t, 600*time.Second, cfg.Cache.TTL())
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, time.Second, cfg.Retry.InitialDelay())
	require.True(t, cfg.Reconcile.StrictRefetch)
	require.Equal(t, "file://.", cfg.Snapshot.DSN)
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "statusboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  mode: http
source:
  kind: xlsx
  workbook_path: /data/book.xlsx
cache:
  ttl_seconds: 30
retry:
  max_attempts: 5
`), 0o644))
	t.Setenv("STATUSBOARD_CONFIG_PATH", path)
	t.Setenv("STATUSBOARD_CACHE_TTL_SECONDS", "45")
	t.Setenv("STATUSBOARD_RECONCILE_STRICT_REFETCH", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "xlsx", cfg.Source.Kind)
	require.Equal(t, "/data/book.xlsx", cfg.Source.WorkbookPath)
	require.Equal(t, 45, cfg.Cache.TTLSeconds)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
	require.False(t, cfg.Reconcile.StrictRefetch)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("STATUSBOARD_SPREADSHEET_ID=from-dotenv\n"), 0o644))
	t.Setenv("STATUSBOARD_ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("STATUSBOARD_SPREADSHEET_ID") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Source.SpreadsheetID)
}

func TestLoad_InvalidPort(t *testing.T) {
	isolate(t)
	t.Setenv("STATUSBOARD_SPREADSHEET_ID", "sheet-123")
	t.Setenv("STATUSBOARD_SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "STATUSBOARD_SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate(), "sheets source needs a spreadsheet id")

	cfg.Source.SpreadsheetID = "abc"
	require.NoError(t, cfg.Validate())

	cfg.Auth.Enabled = true
	require.Error(t, cfg.Validate())
	cfg.Auth.Token = "secret"
	require.NoError(t, cfg.Validate())

	cfg.Retry.MaxAttempts = 0
	require.Error(t, cfg.Validate())
}
