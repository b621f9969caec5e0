// Package storagetest is a behavioural suite every storage.Storage
// implementation must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"herms/internal/model"
	"herms/internal/storage"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Storage

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"Users", testUsers},
		{"ProfileDefaultsAndLookup", testProfileDefaultsAndLookup},
		{"ProfileDuplicateEmail", testProfileDuplicateEmail},
		{"ProfileUpdate", testProfileUpdate},
		{"ProjectCreateDefaults", testProjectCreateDefaults},
		{"ProjectUpdate", testProjectUpdate},
		{"MissingRecords", testMissingRecords},
		{"ListProjectsOwnedAndMember", testListProjectsOwnedAndMember},
		{"MembershipVisibility", testMembershipVisibility},
		{"DuplicateMember", testDuplicateMember},
		{"TaskLifecycle", testTaskLifecycle},
		{"TaskUpdateInvariants", testTaskUpdateInvariants},
		{"TaskUnknownProject", testTaskUnknownProject},
		{"TaskBumpsLastActivity", testTaskBumpsLastActivity},
		{"Comments", testComments},
		{"DocumentDefaultsAndUpdate", testDocumentDefaultsAndUpdate},
		{"TemplateDeleteClearsDocuments", testTemplateDeleteClearsDocuments},
		{"Activity", testActivity},
		{"DeleteProjectCascades", testDeleteProjectCascades},
		{"DeleteProfileCascades", testDeleteProfileCascades},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func newProfile(t *testing.T, s storage.Storage, email string) *model.Profile {
	t.Helper()
	p, err := s.CreateProfile(context.Background(), model.InsertProfile{Email: email})
	require.NoError(t, err)
	return p
}

func newProject(t *testing.T, s storage.Storage, owner uuid.UUID, title string) *model.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), model.InsertProject{Title: title, OwnerID: owner})
	require.NoError(t, err)
	return p
}

func newTask(t *testing.T, s storage.Storage, project, creator uuid.UUID, title string) *model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.InsertTask{Title: title, ProjectID: project, CreatedBy: creator})
	require.NoError(t, err)
	return task
}

func projectIDs(projects []model.Project) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func testUsers(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.InsertUser{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.CreateUser(ctx, model.InsertUser{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testProfileDefaultsAndLookup(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	p := newProfile(t, s, "Ann@Example.com")
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "ann@example.com", p.Email)
	assert.Equal(t, model.ProfileRoleMember, p.Role)
	assert.Nil(t, p.FullName)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))

	got, err := s.GetProfileByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func testProfileDuplicateEmail(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	newProfile(t, s, "dup@example.com")

	_, err := s.CreateProfile(ctx, model.InsertProfile{Email: "DUP@example.com"})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)

	other := newProfile(t, s, "other@example.com")
	_, err = s.UpdateProfile(ctx, other.ID, model.ProfilePatch{Email: ptr("dup@example.com")})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testProfileUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	p, err := s.CreateProfile(ctx, model.InsertProfile{Email: "p@example.com", FullName: ptr("Pat")})
	require.NoError(t, err)

	updated, err := s.UpdateProfile(ctx, p.ID, model.ProfilePatch{
		FullName:   model.Null[string](),
		TelegramID: model.Some("12345"),
		Role:       ptr(model.ProfileRoleManager),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.FullName)
	require.NotNil(t, updated.TelegramID)
	assert.Equal(t, "12345", *updated.TelegramID)
	assert.Equal(t, model.ProfileRoleManager, updated.Role)
	assert.Equal(t, "p@example.com", updated.Email)
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
}

func testProjectCreateDefaults(t *testing.T, s storage.Storage) {
	owner := newProfile(t, s, "owner@example.com")
	p := newProject(t, s, owner.ID, "Launch")

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Launch", p.Title)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, model.DefaultProjectColor, p.Color)
	assert.Equal(t, model.ProjectStatusActive, p.Status)
	assert.Equal(t, owner.ID, p.OwnerID)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))
	assert.True(t, p.LastActivity.Equal(p.CreatedAt))

	_, err := s.CreateProject(context.Background(), model.InsertProject{Title: "Orphan", OwnerID: uuid.New()})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testProjectUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	owner := newProfile(t, s, "owner@example.com")
	p := newProject(t, s, owner.ID, "Launch")

	updated, err := s.UpdateProject(ctx, p.ID, model.ProjectPatch{
		Status: ptr(model.ProjectStatusOnHold),
		Color:  ptr("#10B981"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch", updated.Title)
	assert.Equal(t, model.ProjectStatusOnHold, updated.Status)
	assert.Equal(t, "#10B981", updated.Color)
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	again, err := s.UpdateProject(ctx, p.ID, model.ProjectPatch{})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
}

func testMissingRecords(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	id := uuid.New()

	_, err := s.GetProfile(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetProject(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTask(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTaskComment(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetDocument(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetDocumentTemplate(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateProject(ctx, id, model.ProjectPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateTask(ctx, id, model.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateDocument(ctx, id, model.DocumentPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, s.DeleteProject(ctx, id))
	assert.NoError(t, s.DeleteTask(ctx, id))
	assert.NoError(t, s.DeleteTaskComment(ctx, id))
	assert.NoError(t, s.DeleteDocument(ctx, id))
	assert.NoError(t, s.DeleteDocumentTemplate(ctx, id))
	assert.NoError(t, s.DeleteProfile(ctx, id))
	assert.NoError(t, s.RemoveProjectMember(ctx, id, id))

	tasks, err := s.ListTasks(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func testListProjectsOwnedAndMember(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")

	first := newProject(t, s, u1.ID, "First")
	second := newProject(t, s, u1.ID, "Second")
	foreign := newProject(t, s, u2.ID, "Foreign")
	hidden := newProject(t, s, u2.ID, "Hidden")

	// owner listed as member too must not produce a duplicate
	_, err := s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: first.ID, UserID: u1.ID, Role: model.MemberRoleOwner})
	require.NoError(t, err)
	_, err = s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: foreign.ID, UserID: u1.ID})
	require.NoError(t, err)

	projects, err := s.ListProjects(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{foreign.ID, second.ID, first.ID}, projectIDs(projects))
	assert.NotContains(t, projectIDs(projects), hidden.ID)

	newTask(t, s, first.ID, u1.ID, "Kickoff")

	projects, err = s.ListProjects(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, foreign.ID, second.ID}, projectIDs(projects))
}

func testMembershipVisibility(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")
	launch := newProject(t, s, u1.ID, "Launch")

	m, err := s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: launch.ID, UserID: u2.ID, Role: model.MemberRoleMember})
	require.NoError(t, err)
	assert.Equal(t, model.MemberRoleMember, m.Role)

	projects, err := s.ListProjects(ctx, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{launch.ID}, projectIDs(projects))

	require.NoError(t, s.RemoveProjectMember(ctx, launch.ID, u2.ID))

	projects, err = s.ListProjects(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)

	projects, err = s.ListProjects(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{launch.ID}, projectIDs(projects))

	assert.NoError(t, s.RemoveProjectMember(ctx, launch.ID, u2.ID))
}

func testDuplicateMember(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")
	u3 := newProfile(t, s, "u3@example.com")
	p := newProject(t, s, u1.ID, "Launch")

	first, err := s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: p.ID, UserID: u2.ID})
	require.NoError(t, err)
	second, err := s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: p.ID, UserID: u3.ID, Role: model.MemberRoleAdmin})
	require.NoError(t, err)

	_, err = s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: p.ID, UserID: u2.ID, Role: model.MemberRoleAdmin})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)

	_, err = s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: uuid.New(), UserID: u2.ID})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)

	members, err := s.ListProjectMembers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, first.ID, members[0].ID)
	assert.Equal(t, second.ID, members[1].ID)
}

// Create "Launch", add "Design", finish it.
func testTaskLifecycle(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	launch := newProject(t, s, u1.ID, "Launch")

	design := newTask(t, s, launch.ID, u1.ID, "Design")
	assert.Equal(t, model.TaskStatusTodo, design.Status)
	assert.Equal(t, model.TaskPriorityMedium, design.Priority)
	assert.Equal(t, model.DefaultTaskCategory, design.Category)
	assert.Nil(t, design.AssigneeID)
	assert.Nil(t, design.DueDate)

	done := model.TaskStatusDone
	_, err := s.UpdateTask(ctx, design.ID, model.TaskPatch{Status: &done})
	require.NoError(t, err)

	tasks, err := s.ListTasks(ctx, launch.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, design.ID, tasks[0].ID)
	assert.Equal(t, model.TaskStatusDone, tasks[0].Status)
	assert.True(t, tasks[0].UpdatedAt.After(design.UpdatedAt))

	require.NoError(t, s.DeleteTask(ctx, design.ID))
	_, err = s.GetTask(ctx, design.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, s.DeleteTask(ctx, design.ID))
}

func testTaskUpdateInvariants(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")
	p := newProject(t, s, u1.ID, "Launch")
	task := newTask(t, s, p.ID, u1.ID, "Design")

	due := time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
	updated, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{
		Title:      ptr("Design v2"),
		AssigneeID: model.Some(u2.ID),
		DueDate:    model.Some(due),
	})
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, task.ProjectID, updated.ProjectID)
	assert.Equal(t, task.CreatedBy, updated.CreatedBy)
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
	assert.Equal(t, "Design v2", updated.Title)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, u2.ID, *updated.AssigneeID)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))

	cleared, err := s.UpdateTask(ctx, task.ID, model.TaskPatch{
		AssigneeID: model.Null[uuid.UUID](),
		DueDate:    model.Null[time.Time](),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)
	assert.Nil(t, cleared.DueDate)
	assert.Equal(t, "Design v2", cleared.Title)
	assert.True(t, cleared.UpdatedAt.After(updated.UpdatedAt))

	_, err = s.UpdateTask(ctx, task.ID, model.TaskPatch{AssigneeID: model.Some(uuid.New())})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testTaskUnknownProject(t *testing.T, s storage.Storage) {
	u1 := newProfile(t, s, "u1@example.com")

	_, err := s.CreateTask(context.Background(), model.InsertTask{Title: "Lost", ProjectID: uuid.New(), CreatedBy: u1.ID})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testTaskBumpsLastActivity(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	p := newProject(t, s, u1.ID, "Launch")

	task := newTask(t, s, p.ID, u1.ID, "Design")
	afterCreate, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, afterCreate.LastActivity.After(p.LastActivity))
	assert.True(t, afterCreate.UpdatedAt.Equal(p.UpdatedAt))

	_, err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Priority: ptr(model.TaskPriorityHigh)})
	require.NoError(t, err)
	afterUpdate, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, afterUpdate.LastActivity.After(afterCreate.LastActivity))

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	afterDelete, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, afterDelete.LastActivity.After(afterUpdate.LastActivity))
}

func testComments(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	p := newProject(t, s, u1.ID, "Launch")
	task := newTask(t, s, p.ID, u1.ID, "Design")

	first, err := s.CreateTaskComment(ctx, model.InsertTaskComment{TaskID: task.ID, UserID: u1.ID, Content: "first"})
	require.NoError(t, err)
	second, err := s.CreateTaskComment(ctx, model.InsertTaskComment{TaskID: task.ID, UserID: u1.ID, Content: "second"})
	require.NoError(t, err)

	comments, err := s.ListTaskComments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)

	project, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, project.LastActivity.Equal(second.CreatedAt))

	edited, err := s.UpdateTaskComment(ctx, first.ID, model.TaskCommentPatch{Content: ptr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)
	assert.True(t, edited.UpdatedAt.After(first.UpdatedAt))

	_, err = s.CreateTaskComment(ctx, model.InsertTaskComment{TaskID: uuid.New(), UserID: u1.ID, Content: "lost"})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)

	require.NoError(t, s.DeleteTaskComment(ctx, first.ID))
	comments, err = s.ListTaskComments(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func testDocumentDefaultsAndUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	p := newProject(t, s, u1.ID, "Launch")

	doc, err := s.CreateDocument(ctx, model.InsertDocument{Title: "NDA", ProjectID: p.ID, CreatedBy: u1.ID})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusDraft, doc.Status)
	assert.JSONEq(t, `{}`, string(doc.TemplateFields))
	assert.Nil(t, doc.TemplateID)
	assert.Nil(t, doc.FileURL)

	counterparty := datatypes.JSON(`{"name":"Acme"}`)
	updated, err := s.UpdateDocument(ctx, doc.ID, model.DocumentPatch{
		Status:         ptr(model.DocumentStatusSigned),
		Counterparty:   model.Some(counterparty),
		TemplateFields: ptr(datatypes.JSON(`{"date":"2030-01-01"}`)),
		FileURL:        model.Some("https://files.example.com/nda.pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusSigned, updated.Status)
	assert.JSONEq(t, `{"name":"Acme"}`, string(updated.Counterparty))
	assert.JSONEq(t, `{"date":"2030-01-01"}`, string(updated.TemplateFields))
	require.NotNil(t, updated.FileURL)
	assert.True(t, updated.UpdatedAt.After(doc.UpdatedAt))

	// mutating the caller's buffer must not reach the store
	counterparty[2] = 'X'
	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme"}`, string(got.Counterparty))

	docs, err := s.ListDocuments(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = s.CreateDocument(ctx, model.InsertDocument{Title: "Lost", ProjectID: uuid.New(), CreatedBy: u1.ID})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testTemplateDeleteClearsDocuments(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	p := newProject(t, s, u1.ID, "Launch")

	tpl, err := s.CreateDocumentTemplate(ctx, model.InsertDocumentTemplate{Title: "NDA", Content: "{{party}}", CreatedBy: &u1.ID})
	require.NoError(t, err)
	assert.Equal(t, "Прочее", tpl.Category)
	assert.JSONEq(t, `[]`, string(tpl.Fields))
	assert.False(t, tpl.IsCustom)

	renamed, err := s.UpdateDocumentTemplate(ctx, tpl.ID, model.DocumentTemplatePatch{
		Category: ptr("Legal"),
		Fields:   ptr(datatypes.JSON(`[{"name":"party"}]`)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Legal", renamed.Category)
	assert.JSONEq(t, `[{"name":"party"}]`, string(renamed.Fields))

	doc, err := s.CreateDocument(ctx, model.InsertDocument{Title: "NDA Acme", ProjectID: p.ID, CreatedBy: u1.ID, TemplateID: &tpl.ID})
	require.NoError(t, err)
	require.NotNil(t, doc.TemplateID)

	templates, err := s.ListDocumentTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)

	require.NoError(t, s.DeleteDocumentTemplate(ctx, tpl.ID))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TemplateID)

	_, err = s.GetDocumentTemplate(ctx, tpl.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testActivity(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	p := newProject(t, s, u1.ID, "Launch")

	first, err := s.LogActivity(ctx, model.InsertActivityLog{
		ProjectID: p.ID, UserID: u1.ID, Action: model.ActionCreated, EntityType: model.EntityProject, EntityID: p.ID,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(first.Details))

	second, err := s.LogActivity(ctx, model.InsertActivityLog{
		ProjectID: p.ID, UserID: u1.ID, Action: model.ActionUpdated, EntityType: model.EntityProject, EntityID: p.ID,
		Details: datatypes.JSON(`{"title":"Launch"}`),
	})
	require.NoError(t, err)

	entries, err := s.ListActivity(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.JSONEq(t, `{"title":"Launch"}`, string(entries[0].Details))

	_, err = s.LogActivity(ctx, model.InsertActivityLog{
		ProjectID: uuid.New(), UserID: u1.ID, Action: model.ActionCreated, EntityType: model.EntityTask, EntityID: uuid.New(),
	})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func testDeleteProjectCascades(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")
	p := newProject(t, s, u1.ID, "Launch")
	keep := newProject(t, s, u1.ID, "Keep")

	task := newTask(t, s, p.ID, u1.ID, "Design")
	kept := newTask(t, s, keep.ID, u1.ID, "Kept")
	comment, err := s.CreateTaskComment(ctx, model.InsertTaskComment{TaskID: task.ID, UserID: u2.ID, Content: "hi"})
	require.NoError(t, err)
	doc, err := s.CreateDocument(ctx, model.InsertDocument{Title: "NDA", ProjectID: p.ID, CreatedBy: u1.ID})
	require.NoError(t, err)
	_, err = s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: p.ID, UserID: u2.ID})
	require.NoError(t, err)
	_, err = s.LogActivity(ctx, model.InsertActivityLog{
		ProjectID: p.ID, UserID: u1.ID, Action: model.ActionCreated, EntityType: model.EntityTask, EntityID: task.ID,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTaskComment(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	members, err := s.ListProjectMembers(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	entries, err := s.ListActivity(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	projects, err := s.ListProjects(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = s.GetTask(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = s.GetProfile(ctx, u2.ID)
	assert.NoError(t, err)

	assert.NoError(t, s.DeleteProject(ctx, p.ID))
}

func testDeleteProfileCascades(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u1 := newProfile(t, s, "u1@example.com")
	u2 := newProfile(t, s, "u2@example.com")
	owned := newProject(t, s, u2.ID, "Owned by u2")
	shared := newProject(t, s, u1.ID, "Shared")

	_, err := s.AddProjectMember(ctx, model.InsertProjectMember{ProjectID: shared.ID, UserID: u2.ID})
	require.NoError(t, err)
	assigned, err := s.CreateTask(ctx, model.InsertTask{Title: "Assigned", ProjectID: shared.ID, CreatedBy: u1.ID, AssigneeID: &u2.ID})
	require.NoError(t, err)
	authored := newTask(t, s, shared.ID, u2.ID, "Authored by u2")
	comment, err := s.CreateTaskComment(ctx, model.InsertTaskComment{TaskID: assigned.ID, UserID: u2.ID, Content: "mine"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfile(ctx, u2.ID))

	_, err = s.GetProfile(ctx, u2.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetProject(ctx, owned.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTask(ctx, authored.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetTaskComment(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetTask(ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)

	members, err := s.ListProjectMembers(ctx, shared.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}
