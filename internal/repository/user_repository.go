package repository

import (
	"context"

	"github.com/google/uuid"

	"herms/internal/model"
)

// GetUser returns the user with the given id or storage.ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByUsername looks a user up by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// CreateUser stores a user; a duplicate username is a constraint violation.
func (r *Repository) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	user := model.User{ID: uuid.New(), Username: in.Username, Password: in.Password}
	if err := insert(r.db.WithContext(ctx), &user, user.ID); err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}
