// Package database opens the relational store and brings its schema up to
// date. Postgres is migrated with versioned SQL files; SQLite is
// auto-migrated from the models.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"herms/internal/model"
	"herms/internal/storage"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Models lists every table, parents before children.
var Models = []any{
	&model.User{},
	&model.Profile{},
	&model.Project{},
	&model.ProjectMember{},
	&model.Task{},
	&model.TaskComment{},
	&model.DocumentTemplate{},
	&model.Document{},
	&model.ActivityLog{},
}

func gormConfig(clock *storage.Clock, log logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         log,
		NowFunc:        clock.Now,
		TranslateError: true,
	}
}

// OpenPostgres connects to dsn and applies pending migrations.
func OpenPostgres(dsn string, clock *storage.Clock, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(clock, logger.Default.LogMode(logger.Warn)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := migratePostgres(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	log.Info("connected to postgres")
	return db, nil
}

func migratePostgres(sqlDB *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// OpenSQLite opens path with the pure Go driver, enables foreign keys and
// auto-migrates the schema.
func OpenSQLite(path string, clock *storage.Clock, log *zap.Logger) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer at a time
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gormConfig(clock, logger.Default.LogMode(logger.Silent)))
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(Models...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("opened sqlite database", zap.String("path", path))
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
