package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"herms/internal/auth"
	"herms/internal/middleware"
	"herms/internal/model"
	"herms/internal/storage"
)

// AuthHandler signs users in and out with a session cookie.
type AuthHandler struct {
	store        storage.Storage
	sessions     *auth.Manager
	cookieSecure bool
	log          *zap.Logger
}

// NewAuthHandler creates an AuthHandler. cookieSecure sets the Secure flag on the session cookie.
func NewAuthHandler(store storage.Storage, sessions *auth.Manager, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, sessions: sessions, cookieSecure: cookieSecure, log: log}
}

// LoginRequest carries a password for client compatibility; it is not checked.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

// SessionResponse describes the session created by a login.
type SessionResponse struct {
	ID        string         `json:"id"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *model.Profile `json:"user"`
}

// AuthResponse is returned by login and by the current-user endpoint; User is null without a session.
type AuthResponse struct {
	User    *model.Profile   `json:"user"`
	Session *SessionResponse `json:"session,omitempty"`
}

// Login signs the caller in by email, creating the profile on first login.
//
// @Summary      Sign in by email, creating the profile on first login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body   body  handler.LoginRequest  true  "Credentials"
// @Success      200  {object} handler.AuthResponse
// @Failure      400  {object} handler.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	profile, err := h.store.GetProfileByEmail(ctx, req.Email)
	if isNotFound(err) {
		fullName := strings.SplitN(req.Email, "@", 2)[0]
		profile, err = h.store.CreateProfile(ctx, model.InsertProfile{Email: req.Email, FullName: &fullName})
		if errors.Is(err, storage.ErrConstraintViolation) {
			// lost a race with a concurrent first login
			profile, err = h.store.GetProfileByEmail(ctx, req.Email)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}

	sess, token, err := h.sessions.Login(ctx, profile.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setCookie(c, token, int(h.sessions.TTL().Seconds()))

	h.log.Info("user logged in", zap.String("user_id", profile.ID.String()))
	c.JSON(http.StatusOK, AuthResponse{
		User: profile,
		Session: &SessionResponse{
			ID:        sess.ID.String(),
			ExpiresAt: sess.ExpiresAt,
			User:      profile,
		},
	})
}

// Logout ends the current session and clears the cookie.
//
// @Summary      End the current session
// @Tags         Auth
// @Produce      json
// @Success      200  {object} handler.SuccessResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not log out"})
			return
		}
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// User returns the signed-in profile, or null without a session.
//
// @Summary      Current user or null
// @Tags         Auth
// @Produce      json
// @Success      200  {object} handler.AuthResponse
// @Router       /auth/user [get]
func (h *AuthHandler) User(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusOK, AuthResponse{})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), userID)
	if isNotFound(err) {
		c.JSON(http.StatusOK, AuthResponse{})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{User: profile})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	setSessionCookie(c, value, maxAge, h.cookieSecure)
}

// setSessionCookie writes the session cookie; a negative maxAge clears it.
func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", secure, true)
}
