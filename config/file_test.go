package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: point HOME at a temp dir and optionally write a config file
func withHome(t *testing.T, content string) string {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if content != "" {
		dir := filepath.Join(tmpDir, ".mediascan")
		require.NoError(t, os.MkdirAll(dir, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	}
	return tmpDir
}

// TestLoadConfigFile_NoFile verifies a missing file is not an error
func TestLoadConfigFile_NoFile(t *testing.T) {
	withHome(t, "")

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	assert.Nil(t, cfg, "Should return nil when config file doesn't exist")
}

// TestLoadConfigFile_ValidConfig verifies every section is decoded
func TestLoadConfigFile_ValidConfig(t *testing.T) {
	withHome(t, `storage:
  type: "postgres"
  dsn: "postgres://localhost/mediascan"
browser:
  headless: false
  timeout: "30s"
  retries: 3
pipeline:
  max_accepted: 7
ai:
  model: "gpt-4o"
notify:
  invalidate_url: "http://back-api:8080/api/v1/home/internal/cache/invalidate"
  telegram_chat_id: -100123
schedule:
  at: "04:30"
log:
  file: "/var/log/mediascan.log"
roster_file: "/etc/mediascan/roster.yaml"
`)

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/mediascan", cfg.Storage.DSN)
	require.NotNil(t, cfg.Browser.Headless)
	assert.False(t, *cfg.Browser.Headless)
	assert.Equal(t, "30s", cfg.Browser.Timeout)
	assert.Equal(t, 3, cfg.Browser.Retries)
	assert.Equal(t, 7, cfg.Pipeline.MaxAccepted)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, int64(-100123), cfg.Notify.TelegramChatID)
	assert.Equal(t, "04:30", cfg.Schedule.At)
	assert.Equal(t, "/var/log/mediascan.log", cfg.Log.File)
	assert.Equal(t, "/etc/mediascan/roster.yaml", cfg.RosterFile)
}

// TestLoadConfigFile_InvalidYAML verifies parse errors are reported
func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	withHome(t, `storage:
  - this is invalid yaml because storage should be an object not a list
`)

	cfg, err := LoadConfigFile()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoadConfigFile_PartialConfig verifies unspecified sections stay empty
func TestLoadConfigFile_PartialConfig(t *testing.T) {
	withHome(t, `storage:
  type: "sqlite"
`)

	cfg, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "", cfg.Storage.DSN, "Unspecified DSN should be empty string")
	assert.Nil(t, cfg.Browser.Headless)
}

// TestWriteDefaultConfigFile verifies the template is written once and
// resolves to the built-in defaults with absolute store paths
func TestWriteDefaultConfigFile(t *testing.T) {
	home := withHome(t, "")

	created, err := WriteDefaultConfigFile(false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteDefaultConfigFile(false)
	require.NoError(t, err)
	assert.False(t, created, "Existing file should be kept without force")

	file, err := LoadConfigFile()
	require.NoError(t, err)
	require.NotNil(t, file)

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(file))
	assert.Equal(t, filepath.Join(home, ".mediascan", "media.db"), cfg.Storage.DSN)
	assert.Equal(t, filepath.Join(home, ".mediascan", "articles.db"), cfg.Storage.ArticlesDSN)
	assert.Equal(t, Default().Browser.Timeout, cfg.Browser.Timeout)
	assert.Equal(t, "03:00", cfg.Schedule.At)
	assert.True(t, cfg.Browser.Headless)

	path, err := ConfigFilePath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: sqlite\n"), 0o600))

	created, err = WriteDefaultConfigFile(true)
	require.NoError(t, err)
	assert.True(t, created)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "articles_dsn")
}
