package database

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"herms/internal/storage"
)

func TestOpenSQLite_MigratesAndEnforcesForeignKeys(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "herms.db"), storage.NewClock(), zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	for _, m := range Models {
		assert.True(t, db.Migrator().HasTable(m))
	}

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, entries, "migrations/000001_init.up.sql")
	assert.Contains(t, entries, "migrations/000001_init.down.sql")
}
