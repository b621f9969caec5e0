package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"herms/internal/model"
	"herms/internal/storage"
)

// CommentHandler serves task comments.
type CommentHandler struct {
	store    storage.Storage
	activity activityRecorder
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(store storage.Storage, log *zap.Logger) *CommentHandler {
	return &CommentHandler{store: store, activity: activityRecorder{store: store, log: log}}
}

// taskInProject loads a task and checks project access for userID.
func (h *CommentHandler) taskInProject(c *gin.Context, taskID, userID uuid.UUID) (*model.Task, bool) {
	task, err := h.store.GetTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if _, _, ok := authorizeProject(c, h.store, task.ProjectID, userID); !ok {
		return nil, false
	}
	return task, true
}

// ownComment loads the comment named in the path and checks the caller wrote it.
func (h *CommentHandler) ownComment(c *gin.Context, userID uuid.UUID) (*model.TaskComment, *model.Task, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, nil, false
	}
	comment, err := h.store.GetTaskComment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	task, ok := h.taskInProject(c, comment.TaskID, userID)
	if !ok {
		return nil, nil, false
	}
	if comment.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can change a comment"})
		return nil, nil, false
	}
	return comment, task, true
}

// GetByTaskID lists a task's comments, newest first.
//
// @Summary      List comments, newest first
// @Tags         Comments
// @Produce      json
// @Param        id     path  string  true  "Task ID"
// @Success      200  {array}  model.TaskComment
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /tasks/{id}/comments [get]
func (h *CommentHandler) GetByTaskID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.taskInProject(c, taskID, userID); !ok {
		return
	}

	comments, err := h.store.ListTaskComments(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Create adds a comment to a task the caller can see.
//
// @Summary      Comment on a task
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Task ID"
// @Param        body   body  model.InsertTaskComment  true  "Task comment"
// @Success      201  {object} model.TaskComment
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /tasks/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, ok := h.taskInProject(c, taskID, userID)
	if !ok {
		return
	}

	var req model.InsertTaskComment
	if !bindJSON(c, &req) {
		return
	}
	req.TaskID = taskID
	req.UserID = userID

	comment, err := h.store.CreateTaskComment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, task.ProjectID, userID, model.ActionCreated, model.EntityComment, comment.ID,
		map[string]any{"task_id": task.ID, "task_title": task.Title})
	c.JSON(http.StatusCreated, comment)
}

// Update edits a comment. Only its author may.
//
// @Summary      Edit own comment
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Comment ID"
// @Param        body   body  model.TaskCommentPatch  true  "Fields to change"
// @Success      200  {object} model.TaskComment
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comment, task, ok := h.ownComment(c, userID)
	if !ok {
		return
	}

	var patch model.TaskCommentPatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.store.UpdateTaskComment(c.Request.Context(), comment.ID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, task.ProjectID, userID, model.ActionUpdated, model.EntityComment, comment.ID,
		map[string]any{"task_id": task.ID})
	c.JSON(http.StatusOK, updated)
}

// Delete removes a comment. Only its author may.
//
// @Summary      Delete own comment
// @Tags         Comments
// @Produce      json
// @Param        id     path  string  true  "Comment ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comment, task, ok := h.ownComment(c, userID)
	if !ok {
		return
	}

	if err := h.store.DeleteTaskComment(c.Request.Context(), comment.ID); err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, task.ProjectID, userID, model.ActionDeleted, model.EntityComment, comment.ID,
		map[string]any{"task_id": task.ID})
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
