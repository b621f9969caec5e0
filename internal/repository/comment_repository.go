package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herms/internal/model"
)

// ListTaskComments returns a task's comments, newest first.
func (r *Repository) ListTaskComments(ctx context.Context, taskID uuid.UUID) ([]model.TaskComment, error) {
	comments := []model.TaskComment{}
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err, "comment")
	}
	return comments, nil
}

// GetTaskComment returns the comment with the given id or storage.ErrNotFound.
func (r *Repository) GetTaskComment(ctx context.Context, id uuid.UUID) (*model.TaskComment, error) {
	var comment model.TaskComment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, translate(err, "comment")
	}
	return &comment, nil
}

// CreateTaskComment stores a comment and bumps the owning project's last_activity.
func (r *Repository) CreateTaskComment(ctx context.Context, in model.InsertTaskComment) (*model.TaskComment, error) {
	comment := in.TaskComment(r.clock.Now())
	comment.ID = uuid.New()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, &comment, comment.ID); err != nil {
			return err
		}
		return touchTaskProject(tx, comment.TaskID, comment.CreatedAt)
	})
	if err != nil {
		return nil, translate(err, "comment")
	}
	return &comment, nil
}

// UpdateTaskComment applies patch and bumps the owning project's last_activity.
func (r *Repository) UpdateTaskComment(ctx context.Context, id uuid.UUID, patch model.TaskCommentPatch) (*model.TaskComment, error) {
	comment, err := update(ctx, r, id, patch.Changes(),
		func(c *model.TaskComment) time.Time { return c.UpdatedAt },
		func(tx *gorm.DB, c *model.TaskComment) error { return touchTaskProject(tx, c.TaskID, c.UpdatedAt) })
	if err != nil {
		return nil, translate(err, "comment")
	}
	return comment, nil
}

// DeleteTaskComment removes a comment. Deleting a missing comment is a no-op.
func (r *Repository) DeleteTaskComment(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment model.TaskComment
		if err := tx.Where("id = ?", id).First(&comment).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.TaskComment{}, "id = ?", id).Error; err != nil {
			return err
		}
		return touchTaskProject(tx, comment.TaskID, r.clock.Now())
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return translate(err, "comment")
}

// touchTaskProject bumps the project owning taskID.
func touchTaskProject(tx *gorm.DB, taskID uuid.UUID, at time.Time) error {
	var task model.Task
	if err := tx.Select("project_id").Where("id = ?", taskID).First(&task).Error; err != nil {
		return err
	}
	return touchProject(tx, task.ProjectID, at)
}
