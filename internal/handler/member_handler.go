package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"herms/internal/model"
	"herms/internal/storage"
)

// MemberHandler manages project membership. The owner and admin members
// manage the list; any member may leave on their own.
type MemberHandler struct {
	store    storage.Storage
	activity activityRecorder
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(store storage.Storage, log *zap.Logger) *MemberHandler {
	return &MemberHandler{store: store, activity: activityRecorder{store: store, log: log}}
}

func canManageMembers(role model.MemberRole) bool {
	return role == model.MemberRoleOwner || role == model.MemberRoleAdmin
}

// GetAll lists the project's members.
//
// @Summary      List members
// @Tags         Members
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {array}  model.ProjectMember
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/members [get]
func (h *MemberHandler) GetAll(c *gin.Context) {
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

	members, err := h.store.ListProjectMembers(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Add makes a profile a member. Only the owner or an admin may.
//
// @Summary      Add a member
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Param        body   body  model.InsertProjectMember  true  "Project member"
// @Success      201  {object} model.ProjectMember
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/members [post]
func (h *MemberHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, role, ok := authorizeProject(c, h.store, projectID, userID)
	if !ok {
		return
	}
	if !canManageMembers(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can add members"})
		return
	}

	var req model.InsertProjectMember
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == project.OwnerID {
		c.JSON(http.StatusConflict, gin.H{"error": "The owner is already part of the project"})
		return
	}
	req.ProjectID = projectID

	member, err := h.store.AddProjectMember(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, projectID, userID, model.ActionJoined, model.EntityMember, member.ID,
		map[string]any{"user_id": member.UserID, "role": member.Role})
	c.JSON(http.StatusCreated, member)
}

// Remove takes a member out of the project. Members may remove themselves.
//
// @Summary      Remove a member
// @Tags         Members
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Param        userId path  string  true  "Member profile ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/members/{userId} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	_, role, ok := authorizeProject(c, h.store, projectID, userID)
	if !ok {
		return
	}
	if memberID != userID && !canManageMembers(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can remove members"})
		return
	}

	if err := h.store.RemoveProjectMember(c.Request.Context(), projectID, memberID); err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, projectID, userID, model.ActionLeft, model.EntityMember, memberID,
		map[string]any{"user_id": memberID})
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
