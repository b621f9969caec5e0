package repository_test

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"herms/internal/database"
	"herms/internal/repository"
	"herms/internal/storage"
	"herms/internal/storage/storagetest"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestRepository_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		clock := storage.NewClock()
		db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "herms.db"), clock, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { database.Close(db) })
		return repository.NewRepository(db, clock)
	})
}

var profileColumns = []string{"id", "email", "full_name", "avatar_url", "role", "telegram_id", "telegram_username", "created_at", "updated_at"}

func TestRepository_GetProfileByEmail_Found(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	profileID := uuid.New()
	now := time.Now().UTC()

	// email is lowercased before the lookup
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(profileID.String(), "ann@example.com", "Ann", nil, "member", nil, nil, now, now))

	// Act
	profile, err := repo.GetProfileByEmail(context.Background(), "Ann@Example.com")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, profileID, profile.ID)
	assert.Equal(t, "ann@example.com", profile.Email)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Ann", *profile.FullName)
	assert.Nil(t, profile.AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProfileByEmail_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(profileColumns))

	// Act
	profile, err := repo.GetProfileByEmail(context.Background(), "nobody@example.com")

	// Assert
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProfileByEmail_Error(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email = \$1`).
		WillReturnError(assert.AnError)

	// Act
	profile, err := repo.GetProfileByEmail(context.Background(), "ann@example.com")

	// Assert
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProjects_UsesInList(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE owner_id = \$1 OR id IN \(SELECT "project_id" FROM "project_members" WHERE user_id = \$2\) ORDER BY last_activity DESC,id`).
		WithArgs(userID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id"}))

	// Act
	projects, err := repo.ListProjects(context.Background(), userID)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListTasks(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	projectID := uuid.New()
	newer, older := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tasks" WHERE project_id = $1 ORDER BY created_at DESC,id`)).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "project_id"}).
			AddRow(newer.String(), "Review", "review", projectID.String()).
			AddRow(older.String(), "Design", "todo", projectID.String()))

	// Act
	tasks, err := repo.ListTasks(context.Background(), projectID)

	// Assert
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, newer, tasks[0].ID)
	assert.Equal(t, "Design", tasks[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteProject(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	projectID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "projects" WHERE id = $1`)).
		WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := repo.DeleteProject(context.Background(), projectID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RemoveProjectMember_Idempotent(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewRepository(gormDB, nil)

	projectID, userID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "project_members" WHERE project_id = $1 AND user_id = $2`)).
		WithArgs(projectID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := repo.RemoveProjectMember(context.Background(), projectID, userID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
