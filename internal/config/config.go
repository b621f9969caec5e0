package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string

	// StorageDriver is postgres, sqlite or memory. Empty means inferred from
	// which connection settings are present.
	StorageDriver string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool
	RedisURL      string

	LogLevel     zapcore.Level
	OTLPEndpoint string
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	ttlHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "168"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
	}
	cookieSecure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBHost:        getEnv("DB_HOST", ""),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "herms"),
		DBPassword:    getEnv("DB_PASSWORD", "herms"),
		DBName:        getEnv("DB_NAME", "herms"),
		SQLitePath:    getEnv("SQLITE_PATH", ""),
		StorageDriver: getEnv("STORAGE_DRIVER", ""),
		SessionSecret: getEnv("SESSION_SECRET", "herms-dev-secret"),
		SessionTTL:    time.Duration(ttlHours) * time.Hour,
		CookieSecure:  cookieSecure,
		RedisURL:      getEnv("REDIS_URL", ""),
		LogLevel:      parseLevel(getEnv("LOG_LEVEL", "info")),
		OTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.Driver() {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.Driver() == DriverSQLite && cfg.SQLitePath == "" {
		return nil, fmt.Errorf("STORAGE_DRIVER=sqlite requires SQLITE_PATH")
	}
	return cfg, nil
}

// Driver resolves the storage backend. Postgres wins over SQLite when both
// are configured; with neither the in-memory store is used.
func (c *Config) Driver() string {
	if c.StorageDriver != "" {
		return c.StorageDriver
	}
	switch {
	case c.DatabaseURL != "" || c.DBHost != "":
		return DriverPostgres
	case c.SQLitePath != "":
		return DriverSQLite
	default:
		return DriverMemory
	}
}

// PostgresDSN returns DATABASE_URL, or a DSN assembled from the DB_* parts.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	host := c.DBHost
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
