package repository

import (
	"context"

	"github.com/google/uuid"

	"herms/internal/model"
)

// ListActivity returns the project's audit entries, newest first.
func (r *Repository) ListActivity(ctx context.Context, projectID uuid.UUID) ([]model.ActivityLog, error) {
	entries := []model.ActivityLog{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, translate(err, "activity")
	}
	return entries, nil
}

// LogActivity appends an audit entry.
func (r *Repository) LogActivity(ctx context.Context, in model.InsertActivityLog) (*model.ActivityLog, error) {
	entry := in.ActivityLog(r.clock.Now())
	entry.ID = uuid.New()
	if err := insert(r.db.WithContext(ctx), &entry, entry.ID); err != nil {
		return nil, translate(err, "activity")
	}
	return &entry, nil
}
