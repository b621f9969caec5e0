package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"modernc.org/sqlite"

	"herms/internal/storage"
)

// sqliteConstraint is the primary result code shared by every SQLITE_CONSTRAINT_* code.
const sqliteConstraint = 19

// translate maps driver and GORM errors onto the storage error taxonomy.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", entity, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: duplicate %s", storage.ErrConstraintViolation, entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s references a missing record", storage.ErrConstraintViolation, entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s: %s", storage.ErrConstraintViolation, entity, pgErr.Message)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return fmt.Errorf("%w: %s: %s", storage.ErrConstraintViolation, entity, liteErr.Error())
	}
	return err
}
