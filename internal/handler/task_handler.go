package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"herms/internal/model"
	"herms/internal/storage"
)

// TaskHandler serves tasks.
type TaskHandler struct {
	store    storage.Storage
	activity activityRecorder
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(store storage.Storage, log *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, activity: activityRecorder{store: store, log: log}}
}

// loadTask fetches the task and checks the caller may see its project.
func (h *TaskHandler) loadTask(c *gin.Context, userID uuid.UUID) (*model.Task, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	task, err := h.store.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if _, _, ok := authorizeProject(c, h.store, task.ProjectID, userID); !ok {
		return nil, false
	}
	return task, true
}

// GetByProjectID lists a project's tasks, newest first.
//
// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {array}  model.Task
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/tasks [get]
func (h *TaskHandler) GetByProjectID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, _, ok := authorizeProject(c, h.store, projectID, userID); !ok {
		return
	}

	tasks, err := h.store.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create adds a task to the project.
//
// @Summary      Create a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Param        body   body  model.InsertTask  true  "Task"
// @Success      201  {object} model.Task
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, _, ok := authorizeProject(c, h.store, projectID, userID); !ok {
		return
	}

	var req model.InsertTask
	if !bindJSON(c, &req) {
		return
	}
	req.ProjectID = projectID
	req.CreatedBy = userID

	task, err := h.store.CreateTask(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, task.ProjectID, userID, model.ActionCreated, model.EntityTask, task.ID,
		map[string]any{"title": task.Title})
	c.JSON(http.StatusCreated, task)
}

// GetByID returns a task of a project the caller can see.
//
// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Param        id     path  string  true  "Task ID"
// @Success      200  {object} model.Task
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := h.loadTask(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update changes a task and records the changed fields.
//
// @Summary      Update a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Task ID"
// @Param        body   body  model.TaskPatch  true  "Fields to change"
// @Success      200  {object} model.Task
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := h.loadTask(c, userID)
	if !ok {
		return
	}

	var patch model.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.store.UpdateTask(c.Request.Context(), task.ID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	details := map[string]any{"title": updated.Title, "fields": changedFields(patch.Changes())}
	if updated.Status != task.Status {
		details["from_status"] = task.Status
		details["to_status"] = updated.Status
	}
	h.activity.record(c, updated.ProjectID, userID, model.ActionUpdated, model.EntityTask, updated.ID, details)
	c.JSON(http.StatusOK, updated)
}

// Delete removes a task along with its comments.
//
// @Summary      Delete a task
// @Tags         Tasks
// @Produce      json
// @Param        id     path  string  true  "Task ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	task, ok := h.loadTask(c, userID)
	if !ok {
		return
	}

	if err := h.store.DeleteTask(c.Request.Context(), task.ID); err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, task.ProjectID, userID, model.ActionDeleted, model.EntityTask, task.ID,
		map[string]any{"title": task.Title})
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
