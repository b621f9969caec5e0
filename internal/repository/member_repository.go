package repository

import (
	"context"

	"github.com/google/uuid"

	"herms/internal/model"
)

// ListProjectMembers returns a project's members in the order they joined.
func (r *Repository) ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	members := []model.ProjectMember{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("joined_at").
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, translate(err, "project member")
	}
	return members, nil
}

// AddProjectMember fails with a constraint violation when the user is
// already a member; the (project_id, user_id) pair is unique.
func (r *Repository) AddProjectMember(ctx context.Context, in model.InsertProjectMember) (*model.ProjectMember, error) {
	member := in.ProjectMember(r.clock.Now())
	member.ID = uuid.New()
	if err := insert(r.db.WithContext(ctx), &member, member.ID); err != nil {
		return nil, translate(err, "project member")
	}
	return &member, nil
}

// RemoveProjectMember deletes the membership; a missing one is a no-op.
func (r *Repository) RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{}).Error
	return translate(err, "project member")
}
