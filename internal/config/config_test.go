package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("PYTHON_PATH", "/opt/python/bin/python3")
	t.Setenv("EXPORT_TIMEOUT_SEC", "30")
	t.Setenv("EXPORT_CACHE_INTERPRETER", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "/opt/python/bin/python3", cfg.Export.InterpreterOverride)
	assert.Equal(t, 30*time.Second, cfg.Export.Timeout())
	assert.True(t, cfg.Export.CacheInterpreter)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Export.Timeout())
	assert.Equal(t, int64(50*1024*1024), cfg.Export.MaxOutputBytes)
	assert.Equal(t, "python3", cfg.Export.DefaultInterpreter)
	assert.Equal(t, []string{"/vercel/.pyenv/shims/python3", "python3", "python"}, cfg.Export.InterpreterFallbacks)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9000"
log_level: debug
export:
  script: /srv/export.py
  timeout_sec: 90
  interpreter_fallbacks:
    - python3.12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/export.py", cfg.Export.ScriptPath)
	assert.Equal(t, 90, cfg.Export.TimeoutSec)
	assert.Equal(t, []string{"python3.12"}, cfg.Export.InterpreterFallbacks)
	assert.Equal(t, "python3", cfg.Export.DefaultInterpreter)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	t.Setenv(key, "value")

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	t.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	t.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	t.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	t.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	t.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvList(t *testing.T) {
	key := "TEST_LIST_VAR"
	def := []string{"python3"}

	t.Setenv(key, " python3.11 , ,uv run python ")
	assert.Equal(t, []string{"python3.11", "uv run python"}, getEnvList(key, def))

	t.Setenv(key, " , ")
	assert.Equal(t, def, getEnvList(key, def))

	os.Unsetenv(key)
	assert.Equal(t, def, getEnvList(key, def))
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = ""
	assert.Equal(t, time.UTC, cfg.Location())
}
