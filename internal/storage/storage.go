// Package storage defines the persistence contract shared by the relational
// repository and the in-memory store.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"herms/internal/model"
)

var (
	// ErrNotFound is returned by get and update operations on a missing id.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when a write breaks a foreign key or
	// a uniqueness constraint.
	ErrConstraintViolation = errors.New("constraint violation")
)

// Storage is implemented by repository.Repository and MemStore.
//
// Create operations return the stored record with generated fields. Update
// operations merge the patch, advance updated_at and return the stored record.
// Delete operations are idempotent.
type Storage interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error)

	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	CreateProfile(ctx context.Context, in model.InsertProfile) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) (*model.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	// ListProjects returns projects owned by userID or having userID as a
	// member, most recently active first.
	ListProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	CreateProject(ctx context.Context, in model.InsertProject) (*model.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch model.ProjectPatch) (*model.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	ListProjectMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error)
	AddProjectMember(ctx context.Context, in model.InsertProjectMember) (*model.ProjectMember, error)
	RemoveProjectMember(ctx context.Context, projectID, userID uuid.UUID) error

	ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	CreateTask(ctx context.Context, in model.InsertTask) (*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	ListTaskComments(ctx context.Context, taskID uuid.UUID) ([]model.TaskComment, error)
	GetTaskComment(ctx context.Context, id uuid.UUID) (*model.TaskComment, error)
	CreateTaskComment(ctx context.Context, in model.InsertTaskComment) (*model.TaskComment, error)
	UpdateTaskComment(ctx context.Context, id uuid.UUID, patch model.TaskCommentPatch) (*model.TaskComment, error)
	DeleteTaskComment(ctx context.Context, id uuid.UUID) error

	ListDocuments(ctx context.Context, projectID uuid.UUID) ([]model.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
	CreateDocument(ctx context.Context, in model.InsertDocument) (*model.Document, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, patch model.DocumentPatch) (*model.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	ListDocumentTemplates(ctx context.Context) ([]model.DocumentTemplate, error)
	GetDocumentTemplate(ctx context.Context, id uuid.UUID) (*model.DocumentTemplate, error)
	CreateDocumentTemplate(ctx context.Context, in model.InsertDocumentTemplate) (*model.DocumentTemplate, error)
	UpdateDocumentTemplate(ctx context.Context, id uuid.UUID, patch model.DocumentTemplatePatch) (*model.DocumentTemplate, error)
	DeleteDocumentTemplate(ctx context.Context, id uuid.UUID) error

	ListActivity(ctx context.Context, projectID uuid.UUID) ([]model.ActivityLog, error)
	LogActivity(ctx context.Context, in model.InsertActivityLog) (*model.ActivityLog, error)
}
