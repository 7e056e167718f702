package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "s3cr3t")
	t.Setenv("TEST_PORT", "9090")

	path := writeConfig(t, `
server:
  port: ${TEST_PORT}
jwt:
  secret: ${TEST_JWT_SECRET}
  access_ttl: 30m
database:
  driver: mysql
  dsn: user:pw@tcp(localhost:3306)/portal
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "mysql", cfg.DB.Driver)
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "app:\n  name: Portal\n"))
	require.NoError(t, err)

	assert.Equal(t, "Portal", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.DB.Driver)
	assert.Equal(t, 900*time.Second, cfg.MockTest.Duration)
	assert.Equal(t, 5*time.Second, cfg.MockTest.WarningDisplay)
	assert.Equal(t, 30*time.Minute, cfg.MockTest.Retention)
	assert.Equal(t, 3, cfg.MockTest.MaxPerUser)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestLoadUsesConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "app:\n  env: staging\n"))

	cfg, err := Load("production")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, time.Local, cfg.Location())

	cfg.App.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.App.Timezone = "Not/AZone"
	assert.Equal(t, time.Local, cfg.Location())
}
