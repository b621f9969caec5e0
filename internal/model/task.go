package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

const DefaultTaskCategory = "General"

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"not null" json:"description"`
	Status      TaskStatus   `gorm:"not null" json:"status"`
	Priority    TaskPriority `gorm:"not null" json:"priority"`
	Category    string       `gorm:"not null" json:"category"`
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	AssigneeID  *uuid.UUID   `gorm:"type:uuid;index" json:"assignee_id"`
	CreatedBy   uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Project  *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Assignee *Profile `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"-"`
	Creator  *Profile `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertTask struct {
	Title       string       `json:"title" binding:"required,max=200"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority    TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category    string       `json:"category" binding:"max=100"`
	ProjectID   uuid.UUID    `json:"-"`
	AssigneeID  *uuid.UUID   `json:"assignee_id"`
	CreatedBy   uuid.UUID    `json:"-"`
	DueDate     *time.Time   `json:"due_date"`
}

func (in InsertTask) Task(now time.Time) Task {
	t := Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Category:    in.Category,
		ProjectID:   in.ProjectID,
		AssigneeID:  cloneUUID(in.AssigneeID),
		CreatedBy:   in.CreatedBy,
		DueDate:     cloneTime(in.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	if t.Category == "" {
		t.Category = DefaultTaskCategory
	}
	return t
}

// TaskPatch changes a task. ProjectID and CreatedBy are fixed at creation.
type TaskPatch struct {
	Title       *string             `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string             `json:"description"`
	Status      *TaskStatus         `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority    *TaskPriority       `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category    *string             `json:"category" binding:"omitempty,min=1,max=100"`
	AssigneeID  Nullable[uuid.UUID] `json:"assignee_id"`
	DueDate     Nullable[time.Time] `json:"due_date"`
}

func (p TaskPatch) Apply(dst *Task) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Priority != nil {
		dst.Priority = *p.Priority
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	p.AssigneeID.apply(&dst.AssigneeID)
	p.DueDate.apply(&dst.DueDate)
}

func (p TaskPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.Priority != nil {
		changes["priority"] = *p.Priority
	}
	if p.Category != nil {
		changes["category"] = *p.Category
	}
	if p.AssigneeID.Set {
		changes["assignee_id"] = p.AssigneeID.change()
	}
	if p.DueDate.Set {
		changes["due_date"] = p.DueDate.change()
	}
	return changes
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TaskComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task *Task    `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	User *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertTaskComment struct {
	TaskID  uuid.UUID `json:"-"`
	UserID  uuid.UUID `json:"-"`
	Content string    `json:"content" binding:"required,max=10000"`
}

func (in InsertTaskComment) TaskComment(now time.Time) TaskComment {
	return TaskComment{
		TaskID:    in.TaskID,
		UserID:    in.UserID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type TaskCommentPatch struct {
	Content *string `json:"content" binding:"omitempty,min=1,max=10000"`
}

func (p TaskCommentPatch) Apply(dst *TaskComment) {
	if p.Content != nil {
		dst.Content = *p.Content
	}
}

func (p TaskCommentPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Content != nil {
		changes["content"] = *p.Content
	}
	return changes
}

func (c *TaskComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	t.AssigneeID = cloneUUID(t.AssigneeID)
	t.DueDate = cloneTime(t.DueDate)
	return t
}
