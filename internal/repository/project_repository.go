package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"herms/internal/model"
)

// ListProjects returns projects the user owns or is a member of. The member
// side is an IN list, so a user who is both owner and member gets each
// project once.
func (r *Repository) ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	memberOf := r.db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)

	projects := []model.Project{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Or("id IN (?)", memberOf).
		Order("last_activity DESC").
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, translate(err, "project")
	}
	return projects, nil
}

// GetProject returns the project with the given id or storage.ErrNotFound.
func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate(err, "project")
	}
	return &project, nil
}

// CreateProject stores a project with last_activity set to its creation time.
func (r *Repository) CreateProject(ctx context.Context, in model.InsertProject) (*model.Project, error) {
	project := in.Project(r.clock.Now())
	project.ID = uuid.New()
	if err := insert(r.db.WithContext(ctx), &project, project.ID); err != nil {
		return nil, translate(err, "project")
	}
	return &project, nil
}

// UpdateProject applies patch to a project.
func (r *Repository) UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error) {
	project, err := update(ctx, r, id, patch.Changes(),
		func(p *model.Project) time.Time { return p.UpdatedAt }, nil)
	if err != nil {
		return nil, translate(err, "project")
	}
	return project, nil
}

// DeleteProject relies on ON DELETE CASCADE for tasks, comments, members,
// documents and activity.
func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error, "project")
}
