package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"herms/internal/model"
	"herms/internal/storage"
)

// DocumentHandler serves project documents.
type DocumentHandler struct {
	store    storage.Storage
	activity activityRecorder
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(store storage.Storage, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, activity: activityRecorder{store: store, log: log}}
}

func (h *DocumentHandler) loadDocument(c *gin.Context, userID uuid.UUID) (*model.Document, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	doc, err := h.store.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if _, _, ok := authorizeProject(c, h.store, doc.ProjectID, userID); !ok {
		return nil, false
	}
	return doc, true
}

// GetByProjectID lists a project's documents, newest first.
//
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Success      200  {array}  model.Document
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/documents [get]
func (h *DocumentHandler) GetByProjectID(c *gin.Context) {
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

	docs, err := h.store.ListDocuments(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Create adds a document to the project, optionally from a template.
//
// @Summary      Create a document
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Project ID"
// @Param        body   body  model.InsertDocument  true  "Document"
// @Success      201  {object} model.Document
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /projects/{id}/documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
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

	var req model.InsertDocument
	if !bindJSON(c, &req) {
		return
	}
	req.ProjectID = projectID
	req.CreatedBy = userID

	doc, err := h.store.CreateDocument(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, doc.ProjectID, userID, model.ActionCreated, model.EntityDocument, doc.ID,
		map[string]any{"title": doc.Title})
	c.JSON(http.StatusCreated, doc)
}

// GetByID returns a document of a project the caller can see.
//
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Param        id     path  string  true  "Document ID"
// @Success      200  {object} model.Document
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	doc, ok := h.loadDocument(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Update changes a document and records the changed fields.
//
// @Summary      Update a document
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Document ID"
// @Param        body   body  model.DocumentPatch  true  "Fields to change"
// @Success      200  {object} model.Document
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	doc, ok := h.loadDocument(c, userID)
	if !ok {
		return
	}

	var patch model.DocumentPatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.store.UpdateDocument(c.Request.Context(), doc.ID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	details := map[string]any{"title": updated.Title, "fields": changedFields(patch.Changes())}
	if updated.Status != doc.Status {
		details["from_status"] = doc.Status
		details["to_status"] = updated.Status
	}
	h.activity.record(c, updated.ProjectID, userID, model.ActionUpdated, model.EntityDocument, updated.ID, details)
	c.JSON(http.StatusOK, updated)
}

// Delete removes a document.
//
// @Summary      Delete a document
// @Tags         Documents
// @Produce      json
// @Param        id     path  string  true  "Document ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	doc, ok := h.loadDocument(c, userID)
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		respondError(c, err)
		return
	}

	h.activity.record(c, doc.ProjectID, userID, model.ActionDeleted, model.EntityDocument, doc.ID,
		map[string]any{"title": doc.Title})
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
