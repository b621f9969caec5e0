// Package repository is the relational implementation of storage.Storage.
// Cascades and set-null rules are declared on the schema and left to the
// database.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"herms/internal/model"
	"herms/internal/storage"
)

// Repository implements storage.Storage on top of GORM.
type Repository struct {
	db    *gorm.DB
	clock *storage.Clock
}

var _ storage.Storage = (*Repository)(nil)

// NewRepository wraps db. A nil clock falls back to storage.NewClock().
func NewRepository(db *gorm.DB, clock *storage.Clock) *Repository {
	if clock == nil {
		clock = storage.NewClock()
	}
	return &Repository{db: db, clock: clock}
}

// insert creates row and reads it back, so the caller sees what the database stored.
func insert[T any](tx *gorm.DB, row *T, id uuid.UUID) error {
	if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	var stored T
	if err := tx.First(&stored, "id = ?", id).Error; err != nil {
		return err
	}
	*row = stored
	return nil
}

// update applies changes to the row with the given id, advancing updated_at
// past its stored value, and reads the row back. after runs inside the same
// transaction.
func update[T any](ctx context.Context, r *Repository, id uuid.UUID, changes map[string]any,
	updatedAt func(*T) time.Time, after func(tx *gorm.DB, row *T) error) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		changes["updated_at"] = r.clock.After(updatedAt(&row))
		if err := tx.Model(&row).Omit(clause.Associations).Updates(changes).Error; err != nil {
			return err
		}
		var stored T
		if err := tx.First(&stored, "id = ?", id).Error; err != nil {
			return err
		}
		row = stored
		if after != nil {
			return after(tx, &row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// touchProject moves a project's last_activity forward. UpdateColumn leaves
// updated_at alone: child activity is not an edit of the project itself.
func touchProject(tx *gorm.DB, projectID uuid.UUID, at time.Time) error {
	return tx.Model(&model.Project{}).
		Where("id = ? AND last_activity < ?", projectID, at).
		UpdateColumn("last_activity", at).Error
}
