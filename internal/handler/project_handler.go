package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"herms/internal/model"
	"herms/internal/storage"
)

// ProjectHandler serves projects.
type ProjectHandler struct {
	store    storage.Storage
	activity activityRecorder
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(store storage.Storage, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, activity: activityRecorder{store: store, log: log}}
}

// GetAll lists projects the caller owns or belongs to, most recently active first.
//
// @Summary      Projects owned or joined, most recently active first
// @Tags         Projects
// @Produce      json
// @Success      200  {array}  model.Project
// @Failure      401  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects [get]
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.store.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create starts a project owned by the caller.
//
// @Summary      Create a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body   body  model.InsertProject  true  "Project"
// @Success      201  {object} model.Project
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.InsertProject
	if !bindJSON(c, &req) {
		return
	}
	req.OwnerID = userID

	project, err := h.store.CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, project.ID, userID, model.ActionCreated, model.EntityProject, project.ID,
		map[string]any{"title": project.Title})
	c.JSON(http.StatusCreated, project)
}

// GetByID returns a project the caller owns or belongs to.
//
// @Summary      Get a project
// @Tags         Projects
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {object} model.Project
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, _, ok := authorizeProject(c, h.store, id, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update changes a project and records the changed fields.
//
// @Summary      Update a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Param        body   body  model.ProjectPatch  true  "Fields to change"
// @Success      200  {object} model.Project
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, _, ok := authorizeProject(c, h.store, id, userID); !ok {
		return
	}

	var patch model.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}

	project, err := h.store.UpdateProject(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, project.ID, userID, model.ActionUpdated, model.EntityProject, project.ID,
		map[string]any{"fields": changedFields(patch.Changes())})
	c.JSON(http.StatusOK, project)
}

// Delete removes the project and everything under it. Only the owner may.
//
// @Summary      Delete a project (owner only)
// @Tags         Projects
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, _, ok := authorizeProject(c, h.store, id, userID)
	if !ok {
		return
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can delete it"})
		return
	}

	if err := h.store.DeleteProject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
