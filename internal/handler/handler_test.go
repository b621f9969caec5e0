package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"herms/internal/auth"
	"herms/internal/handler"
	"herms/internal/middleware"
	"herms/internal/model"
	"herms/internal/storage"
)

const testUserHeader = "X-Test-User"

// Мок хранилища: всё делегируется MemStore, кроме LogActivity
type activityFailStore struct {
	*storage.MemStore
	mock.Mock
}

func (s *activityFailStore) LogActivity(ctx context.Context, in model.InsertActivityLog) (*model.ActivityLog, error) {
	args := s.Called(ctx, in)
	return nil, args.Error(1)
}

// fakeAuth stands in for SessionAuth: the caller id comes from a header.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader(testUserHeader)); err == nil {
			c.Set(middleware.UserIDKey, id)
		}
		c.Next()
	}
}

func setupRouter(store storage.Storage, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	r := gin.New()
	r.Use(fakeAuth())

	sessions := auth.NewManager(auth.NewSigner("test-secret", time.Hour), auth.NewMemoryStore(), time.Hour)
	profiles := handler.NewProfileHandler(store, sessions, false, log)
	projects := handler.NewProjectHandler(store, log)
	members := handler.NewMemberHandler(store, log)
	tasks := handler.NewTaskHandler(store, log)
	comments := handler.NewCommentHandler(store, log)
	documents := handler.NewDocumentHandler(store, log)
	templates := handler.NewTemplateHandler(store)
	activity := handler.NewActivityHandler(store)

	r.GET("/profiles/:id", profiles.GetByID)
	r.PUT("/profiles/:id", profiles.Update)
	r.DELETE("/profiles/:id", profiles.Delete)

	r.GET("/projects", projects.GetAll)
	r.POST("/projects", projects.Create)
	r.GET("/projects/:id", projects.GetByID)
	r.PUT("/projects/:id", projects.Update)
	r.DELETE("/projects/:id", projects.Delete)
	r.GET("/projects/:id/members", members.GetAll)
	r.POST("/projects/:id/members", members.Add)
	r.DELETE("/projects/:id/members/:userId", members.Remove)
	r.GET("/projects/:id/tasks", tasks.GetByProjectID)
	r.POST("/projects/:id/tasks", tasks.Create)
	r.GET("/projects/:id/documents", documents.GetByProjectID)
	r.POST("/projects/:id/documents", documents.Create)
	r.GET("/projects/:id/activity", activity.GetByProjectID)

	r.GET("/tasks/:id", tasks.GetByID)
	r.PUT("/tasks/:id", tasks.Update)
	r.DELETE("/tasks/:id", tasks.Delete)
	r.GET("/tasks/:id/comments", comments.GetByTaskID)
	r.POST("/tasks/:id/comments", comments.Create)
	r.PUT("/comments/:id", comments.Update)
	r.DELETE("/comments/:id", comments.Delete)

	r.GET("/documents/:id", documents.GetByID)
	r.PUT("/documents/:id", documents.Update)
	r.DELETE("/documents/:id", documents.Delete)

	r.GET("/document-templates", templates.GetAll)
	r.POST("/document-templates", templates.Create)
	r.GET("/document-templates/:id", templates.GetByID)
	r.PUT("/document-templates/:id", templates.Update)
	r.DELETE("/document-templates/:id", templates.Delete)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(testUserHeader, user.String())
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func newProfile(t *testing.T, store storage.Storage, email string) uuid.UUID {
	t.Helper()
	p, err := store.CreateProfile(context.Background(), model.InsertProfile{Email: email})
	require.NoError(t, err)
	return p.ID
}

func newProject(t *testing.T, r *gin.Engine, owner uuid.UUID) model.Project {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/projects", owner, gin.H{"title": "Office move"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Project](t, resp)
}

func newTask(t *testing.T, r *gin.Engine, user uuid.UUID, projectID uuid.UUID) model.Task {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/projects/"+projectID.String()+"/tasks", user, gin.H{"title": "Pack boxes"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Task](t, resp)
}

func TestProject_RequiresSession(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())

	// Act
	resp := do(t, r, http.MethodGet, "/projects", uuid.Nil, nil)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestProject_CreateAndList(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")

	// Act
	project := newProject(t, r, owner)
	resp := do(t, r, http.MethodGet, "/projects", owner, nil)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	projects := decode[[]model.Project](t, resp)
	require.Len(t, projects, 1)
	assert.Equal(t, project.ID, projects[0].ID)
	assert.Equal(t, owner, projects[0].OwnerID)
	assert.Equal(t, model.ProjectStatusActive, projects[0].Status)

	entries, err := store.ListActivity(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionCreated, entries[0].Action)
	assert.Equal(t, model.EntityProject, entries[0].EntityType)
}

func TestProject_ValidationFailed(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")

	// Act
	resp := do(t, r, http.MethodPost, "/projects", owner, gin.H{"title": "", "color": "blue"})

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}](t, resp)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Contains(t, body.Details, "title")
	assert.Contains(t, body.Details, "color")
}

func TestProject_InvalidBody(t *testing.T) {
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")

	resp := do(t, r, http.MethodPost, "/projects", owner, "{not json")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, resp.Body.String())
}

func TestProject_NotFoundAndBadID(t *testing.T) {
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")

	resp := do(t, r, http.MethodGet, "/projects/"+uuid.NewString(), owner, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, r, http.MethodGet, "/projects/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProject_ForbiddenForOutsider(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	outsider := newProfile(t, store, "outsider@example.com")
	project := newProject(t, r, owner)

	// Act & Assert
	for _, path := range []string{
		"/projects/" + project.ID.String(),
		"/projects/" + project.ID.String() + "/tasks",
		"/projects/" + project.ID.String() + "/activity",
	} {
		resp := do(t, r, http.MethodGet, path, outsider, nil)
		assert.Equal(t, http.StatusForbidden, resp.Code, path)
	}
}

func TestProject_OnlyOwnerDeletes(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	admin := newProfile(t, store, "admin@example.com")
	project := newProject(t, r, owner)
	resp := do(t, r, http.MethodPost, "/projects/"+project.ID.String()+"/members", owner,
		gin.H{"user_id": admin, "role": "admin"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	// Act
	denied := do(t, r, http.MethodDelete, "/projects/"+project.ID.String(), admin, nil)
	allowed := do(t, r, http.MethodDelete, "/projects/"+project.ID.String(), owner, nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, http.StatusOK, allowed.Code)
	assert.JSONEq(t, `{"success":true}`, allowed.Body.String())

	_, err := store.GetProject(context.Background(), project.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMember_AddRemove(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	member := newProfile(t, store, "member@example.com")
	project := newProject(t, r, owner)
	membersPath := "/projects/" + project.ID.String() + "/members"

	// Act
	added := do(t, r, http.MethodPost, membersPath, owner, gin.H{"user_id": member})
	duplicate := do(t, r, http.MethodPost, membersPath, owner, gin.H{"user_id": member})
	byMember := do(t, r, http.MethodPost, membersPath, member, gin.H{"user_id": uuid.New()})
	listed := do(t, r, http.MethodGet, membersPath, member, nil)

	// Assert
	assert.Equal(t, http.StatusCreated, added.Code)
	assert.Equal(t, model.MemberRoleMember, decode[model.ProjectMember](t, added).Role)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, http.StatusForbidden, byMember.Code)
	assert.Len(t, decode[[]model.ProjectMember](t, listed), 1)

	// участник может выйти сам
	left := do(t, r, http.MethodDelete, membersPath+"/"+member.String(), member, nil)
	assert.Equal(t, http.StatusOK, left.Code)

	resp := do(t, r, http.MethodGet, "/projects/"+project.ID.String(), member, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	entries, err := store.ListActivity(context.Background(), project.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, model.ActionJoined)
	assert.Contains(t, actions, model.ActionLeft)
}

func TestMember_CannotGrantOwnerRole(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	admin := newProfile(t, store, "admin@example.com")
	other := newProfile(t, store, "other@example.com")
	project := newProject(t, r, owner)
	membersPath := "/projects/" + project.ID.String() + "/members"
	require.Equal(t, http.StatusCreated,
		do(t, r, http.MethodPost, membersPath, owner, gin.H{"user_id": admin, "role": "admin"}).Code)

	// Act
	resp := do(t, r, http.MethodPost, membersPath, admin, gin.H{"user_id": other, "role": "owner"})

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[struct {
		Details map[string]string `json:"details"`
	}](t, resp)
	assert.Equal(t, "must be one of: admin member", body.Details["role"])

	members, err := store.ListProjectMembers(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestMember_UnknownProfile(t *testing.T) {
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	project := newProject(t, r, owner)

	resp := do(t, r, http.MethodPost, "/projects/"+project.ID.String()+"/members", owner,
		gin.H{"user_id": uuid.New()})

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestTask_Lifecycle(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	project := newProject(t, r, owner)
	task := newTask(t, r, owner, project.ID)
	taskPath := "/tasks/" + task.ID.String()

	// Act
	updated := do(t, r, http.MethodPut, taskPath, owner, gin.H{"status": "done", "assignee_id": owner})
	cleared := do(t, r, http.MethodPut, taskPath, owner, gin.H{"assignee_id": nil})
	deleted := do(t, r, http.MethodDelete, taskPath, owner, nil)
	missing := do(t, r, http.MethodGet, taskPath, owner, nil)

	// Assert
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	got := decode[model.Task](t, updated)
	assert.Equal(t, model.TaskStatusDone, got.Status)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, owner, *got.AssigneeID)

	require.Equal(t, http.StatusOK, cleared.Code)
	assert.Nil(t, decode[model.Task](t, cleared).AssigneeID)

	assert.Equal(t, http.StatusOK, deleted.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	entries, err := store.ListActivity(context.Background(), project.ID)
	require.NoError(t, err)
	var statusChange map[string]any
	for _, e := range entries {
		if e.EntityType == model.EntityTask && e.Action == model.ActionUpdated {
			var details map[string]any
			require.NoError(t, json.Unmarshal(e.Details, &details))
			if _, ok := details["to_status"]; ok {
				statusChange = details
			}
		}
	}
	require.NotNil(t, statusChange)
	assert.Equal(t, "todo", statusChange["from_status"])
	assert.Equal(t, "done", statusChange["to_status"])
}

func TestTask_InvalidStatus(t *testing.T) {
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	project := newProject(t, r, owner)

	resp := do(t, r, http.MethodPost, "/projects/"+project.ID.String()+"/tasks", owner,
		gin.H{"title": "Pack boxes", "status": "blocked"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestComment_OnlyAuthorEdits(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	member := newProfile(t, store, "member@example.com")
	project := newProject(t, r, owner)
	do(t, r, http.MethodPost, "/projects/"+project.ID.String()+"/members", owner, gin.H{"user_id": member})
	task := newTask(t, r, owner, project.ID)

	resp := do(t, r, http.MethodPost, "/tasks/"+task.ID.String()+"/comments", member, gin.H{"content": "On it"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	comment := decode[model.TaskComment](t, resp)
	commentPath := "/comments/" + comment.ID.String()

	// Act
	byOwner := do(t, r, http.MethodPut, commentPath, owner, gin.H{"content": "Hijacked"})
	byAuthor := do(t, r, http.MethodPut, commentPath, member, gin.H{"content": "Done"})
	deleteByOwner := do(t, r, http.MethodDelete, commentPath, owner, nil)
	deleteByAuthor := do(t, r, http.MethodDelete, commentPath, member, nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, byOwner.Code)
	require.Equal(t, http.StatusOK, byAuthor.Code)
	assert.Equal(t, "Done", decode[model.TaskComment](t, byAuthor).Content)
	assert.Equal(t, http.StatusForbidden, deleteByOwner.Code)
	assert.Equal(t, http.StatusOK, deleteByAuthor.Code)

	list := do(t, r, http.MethodGet, "/tasks/"+task.ID.String()+"/comments", owner, nil)
	assert.Empty(t, decode[[]model.TaskComment](t, list))
}

func TestDocument_CreateAndUpdate(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	owner := newProfile(t, store, "owner@example.com")
	project := newProject(t, r, owner)

	// Act
	created := do(t, r, http.MethodPost, "/projects/"+project.ID.String()+"/documents", owner, gin.H{
		"title":        "Lease",
		"counterparty": gin.H{"name": "ACME"},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	doc := decode[model.Document](t, created)

	badFields := do(t, r, http.MethodPut, "/documents/"+doc.ID.String(), owner, gin.H{"template_fields": []int{1}})
	updated := do(t, r, http.MethodPut, "/documents/"+doc.ID.String(), owner, gin.H{"status": "signed", "counterparty": nil})

	// Assert
	assert.Equal(t, model.DocumentStatusDraft, doc.Status)
	assert.Equal(t, owner, doc.CreatedBy)
	assert.JSONEq(t, `{"name":"ACME"}`, string(doc.Counterparty))

	assert.Equal(t, http.StatusBadRequest, badFields.Code)

	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	assert.Equal(t, model.DocumentStatusSigned, decode[model.Document](t, updated).Status)
	body := decode[map[string]any](t, updated)
	assert.Nil(t, body["counterparty"])
}

func TestTemplate_CreatorOnly(t *testing.T) {
	// Arrange
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	author := newProfile(t, store, "author@example.com")
	other := newProfile(t, store, "other@example.com")
	builtin, err := store.CreateDocumentTemplate(context.Background(), model.InsertDocumentTemplate{
		Title:   "NDA",
		Content: "Confidential",
	})
	require.NoError(t, err)

	created := do(t, r, http.MethodPost, "/document-templates", author, gin.H{"title": "Invoice", "content": "Pay {amount}"})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	tpl := decode[model.DocumentTemplate](t, created)

	// Act
	byOther := do(t, r, http.MethodPut, "/document-templates/"+tpl.ID.String(), other, gin.H{"title": "Mine"})
	byAuthor := do(t, r, http.MethodPut, "/document-templates/"+tpl.ID.String(), author, gin.H{"title": "Invoice v2"})
	deleteBuiltin := do(t, r, http.MethodDelete, "/document-templates/"+builtin.ID.String(), author, nil)
	list := do(t, r, http.MethodGet, "/document-templates", other, nil)

	// Assert
	assert.True(t, tpl.IsCustom)
	require.NotNil(t, tpl.CreatedBy)
	assert.Equal(t, author, *tpl.CreatedBy)
	assert.Equal(t, http.StatusForbidden, byOther.Code)
	require.Equal(t, http.StatusOK, byAuthor.Code)
	assert.Equal(t, "Invoice v2", decode[model.DocumentTemplate](t, byAuthor).Title)
	assert.Equal(t, http.StatusForbidden, deleteBuiltin.Code)
	assert.Len(t, decode[[]model.DocumentTemplate](t, list), 2)
}

func TestProfile_SelfOnly(t *testing.T) {
	store := storage.NewMemStore(storage.NewClock())
	r := setupRouter(store, zap.NewNop())
	me := newProfile(t, store, "me@example.com")
	other := newProfile(t, store, "other@example.com")

	foreign := do(t, r, http.MethodPut, "/profiles/"+other.String(), me, gin.H{"full_name": "Mallory"})
	own := do(t, r, http.MethodPut, "/profiles/"+me.String(), me, gin.H{"full_name": "Alice"})
	visible := do(t, r, http.MethodGet, "/profiles/"+other.String(), me, nil)

	assert.Equal(t, http.StatusForbidden, foreign.Code)
	require.Equal(t, http.StatusOK, own.Code, own.Body.String())
	got := decode[model.Profile](t, own)
	require.NotNil(t, got.FullName)
	assert.Equal(t, "Alice", *got.FullName)
	assert.Equal(t, http.StatusOK, visible.Code)
}

func TestActivityFailureDoesNotFailRequest(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	store := &activityFailStore{MemStore: storage.NewMemStore(storage.NewClock())}
	store.On("LogActivity", mock.Anything, mock.AnythingOfType("model.InsertActivityLog")).
		Return(nil, errors.New("disk full"))
	r := setupRouter(store, zap.New(core))
	owner := newProfile(t, store, "owner@example.com")

	// Act
	resp := do(t, r, http.MethodPost, "/projects", owner, gin.H{"title": "Office move"})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	store.AssertExpectations(t)
	require.Equal(t, 1, logs.FilterMessage("failed to record activity").Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "created", fields["action"])
	assert.Equal(t, "disk full", fields["error"])
}
