package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"herms/internal/auth"
	"herms/internal/middleware"
	"herms/internal/model"
	"herms/internal/storage"
)

// ProfileHandler serves profiles. Profiles may only change themselves.
type ProfileHandler struct {
	store        storage.Storage
	sessions     *auth.Manager
	cookieSecure bool
	log          *zap.Logger
}

// NewProfileHandler creates a ProfileHandler. sessions is used to end the
// session of a deleted profile.
func NewProfileHandler(store storage.Storage, sessions *auth.Manager, cookieSecure bool, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, sessions: sessions, cookieSecure: cookieSecure, log: log}
}

// GetByID returns a profile.
//
// @Summary      Get a profile
// @Tags         Profiles
// @Produce      json
// @Param        id     path  string  true  "Profile ID"
// @Success      200  {object} model.Profile
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) GetByID(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update changes the caller's own profile.
//
// @Summary      Update own profile
// @Tags         Profiles
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Profile ID"
// @Param        body   body  model.ProfilePatch  true  "Fields to change"
// @Success      200  {object} model.Profile
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /profiles/{id} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own profile"})
		return
	}

	var patch model.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}

	profile, err := h.store.UpdateProfile(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Delete removes the caller's own profile together with everything it owns.
//
// @Summary      Delete own profile
// @Tags         Profiles
// @Produce      json
// @Param        id     path  string  true  "Profile ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /profiles/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own profile"})
		return
	}

	if err := h.store.DeleteProfile(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.log.Info("profile deleted", zap.String("user_id", id.String()))

	// end the session that belonged to the deleted profile
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
			h.log.Warn("failed to end session of deleted profile", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	setSessionCookie(c, "", -1, h.cookieSecure)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
