package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"herms/internal/model"
)

// GetProfile returns the profile with the given id or storage.ErrNotFound.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err, "profile")
	}
	return &profile, nil
}

// GetProfileByEmail looks a profile up by its lower-cased email.
func (r *Repository) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&profile).Error
	if err != nil {
		return nil, translate(err, "profile")
	}
	return &profile, nil
}

// CreateProfile stores a profile; a duplicate email is a constraint violation.
func (r *Repository) CreateProfile(ctx context.Context, in model.InsertProfile) (*model.Profile, error) {
	profile := in.Profile(r.clock.Now())
	profile.ID = uuid.New()
	if err := insert(r.db.WithContext(ctx), &profile, profile.ID); err != nil {
		return nil, translate(err, "profile")
	}
	return &profile, nil
}

// UpdateProfile applies patch to a profile.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) (*model.Profile, error) {
	profile, err := update(ctx, r, id, patch.Changes(),
		func(p *model.Profile) time.Time { return p.UpdatedAt }, nil)
	if err != nil {
		return nil, translate(err, "profile")
	}
	return profile, nil
}

// DeleteProfile removes the profile; owned projects, memberships, authored
// comments and documents go with it and assigned tasks are unassigned by the
// schema.
func (r *Repository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Profile{}, "id = ?", id).Error, "profile")
}
