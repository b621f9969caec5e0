package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "DB_HOST", "SQLITE_PATH", "STORAGE_DRIVER",
		"SESSION_TTL_HOURS", "COOKIE_SECURE", "REDIS_URL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SESSION_TTL_HOURS", "168")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.Driver())
}

func TestDriver_Inferred(t *testing.T) {
	assert.Equal(t, DriverPostgres, (&Config{DatabaseURL: "postgres://x"}).Driver())
	assert.Equal(t, DriverPostgres, (&Config{DBHost: "db"}).Driver())
	assert.Equal(t, DriverSQLite, (&Config{SQLitePath: "herms.db"}).Driver())
	assert.Equal(t, DriverMemory, (&Config{}).Driver())
	assert.Equal(t, DriverMemory, (&Config{SQLitePath: "herms.db", StorageDriver: DriverMemory}).Driver())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.PostgresDSN())

	cfg.DatabaseURL = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", cfg.PostgresDSN())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL_HOURS", "soon")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SESSION_TTL_HOURS", "1")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err = Load()
	assert.Error(t, err)
}
