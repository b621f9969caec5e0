package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"herms/internal/storage"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, storage.ErrNotFound},
		{"wrapped not found", fmt.Errorf("tx: %w", gorm.ErrRecordNotFound), storage.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, storage.ErrConstraintViolation},
		{"foreign key", gorm.ErrForeignKeyViolated, storage.ErrConstraintViolation},
		{"postgres unique", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, storage.ErrConstraintViolation},
		{"postgres foreign key", &pgconn.PgError{Code: "23503", Message: "violates foreign key"}, storage.ErrConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err, "task"), tt.want)
		})
	}
}

func TestTranslate_PassThrough(t *testing.T) {
	assert.NoError(t, translate(nil, "task"))

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other, "task"))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Equal(t, error(syntax), translate(syntax, "task"))
}

func TestTranslate_NotFoundMessage(t *testing.T) {
	assert.EqualError(t, translate(gorm.ErrRecordNotFound, "task"), "task not found")
}
