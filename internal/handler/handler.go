// Package handler implements the JSON API on top of storage.Storage.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"herms/internal/middleware"
	"herms/internal/model"
	"herms/internal/storage"
)

// currentUser returns the authenticated profile id, writing a 401 when the
// request has no session.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, errNoSession)
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the named path parameter as a UUID, writing a 400 on failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", name)})
		return uuid.Nil, false
	}
	return id, true
}

// projectRole loads the project and the caller's role in it. Callers that are
// neither owner nor member get errForbidden.
func projectRole(ctx context.Context, store storage.Storage, projectID, userID uuid.UUID) (*model.Project, model.MemberRole, error) {
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	if project.OwnerID == userID {
		return project, model.MemberRoleOwner, nil
	}

	members, err := store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	for _, m := range members {
		if m.UserID == userID {
			return project, m.Role, nil
		}
	}
	return nil, "", fmt.Errorf("%w: not a member of this project", errForbidden)
}

// authorizeProject is projectRole for handlers: it writes the error response
// itself and reports whether the request may continue.
func authorizeProject(c *gin.Context, store storage.Storage, projectID, userID uuid.UUID) (*model.Project, model.MemberRole, bool) {
	project, role, err := projectRole(c.Request.Context(), store, projectID, userID)
	if err != nil {
		respondError(c, err)
		return nil, "", false
	}
	return project, role, true
}

// activityRecorder appends audit entries. A failed write is logged and never
// fails the request that caused it.
type activityRecorder struct {
	store storage.Storage
	log   *zap.Logger
}

func (r activityRecorder) record(c *gin.Context, projectID, userID uuid.UUID, action string,
	entity model.EntityType, entityID uuid.UUID, details map[string]any) {
	in := model.InsertActivityLog{
		ProjectID:  projectID,
		UserID:     userID,
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			in.Details = datatypes.JSON(raw)
		}
	}

	if _, err := r.store.LogActivity(c.Request.Context(), in); err != nil {
		r.log.Warn("failed to record activity",
			zap.String("project_id", projectID.String()),
			zap.String("action", action),
			zap.String("entity_type", string(entity)),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
	}
}

// changedFields lists the columns a patch touches, for activity details.
func changedFields(changes map[string]any) []string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
