package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psm-app/psm/pkg/store"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3456, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, store.DatabaseTypeSQLite, cfg.Database.Type)
	assert.NotEmpty(t, cfg.Database.SQLite.Path)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
  workers: 2
database:
  type: sqlite
  sqlite:
    path: /tmp/psm-test.db
logging:
  level: debug
  format: json
auth:
  access_token_duration: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Server.Workers)
	assert.Equal(t, "/tmp/psm-test.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "DEBUG", cfg.Logging.Level) // normalized to uppercase
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenDuration)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid port", "server:\n  port: 70000\n"},
		{"invalid log level", "logging:\n  level: verbose\n"},
		{"invalid log format", "logging:\n  format: xml\n"},
		{"postgres without host", "database:\n  type: postgres\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestMustLoadReportsMissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestGetJWTSecretPrefersEnv(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "from-file"}
	assert.Equal(t, "from-file", cfg.GetJWTSecret())

	t.Setenv(EnvJWTSecret, "from-env")
	assert.Equal(t, "from-env", cfg.GetJWTSecret())
}

func TestInitConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, InitConfigToPath(path, false))

	// Refuses to overwrite without force.
	require.Error(t, InitConfigToPath(path, false))
	require.NoError(t, InitConfigToPath(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3456, cfg.Server.Port)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PSM_SERVER_PORT", "9999")

	// Env overrides apply only when a config file participates in the
	// merge; write a minimal one.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}
