package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	for _, key := range []string{"CONFIG_FILE", "APP_HOST", "APP_PORT", "ALLOWED_ORIGIN", "LOG_LEVEL", "JWT_SECRET",
		"STORAGE_DRIVER", "STORAGE_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "AUTOSAVE_DELAY_SECONDS"} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.AutosaveDelay())
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000

[storage]
driver = "redis"
redis_prefix = "md:"

[autosave]
delay_seconds = 10
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "md:", cfg.Storage.RedisPrefix)
	assert.Equal(t, 10*time.Second, cfg.AutosaveDelay())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	isolate(t)

	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("STORAGE_DSN", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("AUTOSAVE_DELAY_SECONDS", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestMalformedConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport = "), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
