package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herms/internal/model"
)

// ListTasks returns a project's tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	tasks := []model.Task{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "task")
	}
	return tasks, nil
}

// GetTask returns the task with the given id or storage.ErrNotFound.
func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate(err, "task")
	}
	return &task, nil
}

// CreateTask stores a task and bumps its project's last_activity.
func (r *Repository) CreateTask(ctx context.Context, in model.InsertTask) (*model.Task, error) {
	task := in.Task(r.clock.Now())
	task.ID = uuid.New()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, &task, task.ID); err != nil {
			return err
		}
		return touchProject(tx, task.ProjectID, task.CreatedAt)
	})
	if err != nil {
		return nil, translate(err, "task")
	}
	return &task, nil
}

// UpdateTask applies patch and bumps the project's last_activity.
func (r *Repository) UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	task, err := update(ctx, r, id, patch.Changes(),
		func(t *model.Task) time.Time { return t.UpdatedAt },
		func(tx *gorm.DB, t *model.Task) error { return touchProject(tx, t.ProjectID, t.UpdatedAt) })
	if err != nil {
		return nil, translate(err, "task")
	}
	return task, nil
}

// DeleteTask removes the task and its comments. Deleting a missing task is a
// no-op and leaves every project untouched.
func (r *Repository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Task{}, "id = ?", id).Error; err != nil {
			return err
		}
		return touchProject(tx, task.ProjectID, r.clock.Now())
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return translate(err, "task")
}
