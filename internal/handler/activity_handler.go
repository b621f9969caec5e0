package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"herms/internal/storage"
)

// ActivityHandler serves a project's audit trail.
type ActivityHandler struct {
	store storage.Storage
}

func NewActivityHandler(store storage.Storage) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// GetByProjectID returns the project's audit trail, newest first.
//
// @Summary      Project activity, newest first
// @Tags         Activity
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {array}  model.ActivityLog
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/activity [get]
func (h *ActivityHandler) GetByProjectID(c *gin.Context) {
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

	entries, err := h.store.ListActivity(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
