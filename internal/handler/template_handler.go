package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"herms/internal/model"
	"herms/internal/storage"
)

// TemplateHandler serves the shared template library. Built-in templates
// (no creator) are read-only; custom ones may be changed by their creator.
type TemplateHandler struct {
	store storage.Storage
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(store storage.Storage) *TemplateHandler {
	return &TemplateHandler{store: store}
}

func (h *TemplateHandler) ownTemplate(c *gin.Context, userID uuid.UUID) (*model.DocumentTemplate, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	tpl, err := h.store.GetDocumentTemplate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if tpl.CreatedBy == nil || *tpl.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator can change a template"})
		return nil, false
	}
	return tpl, true
}

// GetAll lists every template, newest first.
//
// @Summary      List templates
// @Tags         Templates
// @Produce      json
// @Success      200  {array}  model.DocumentTemplate
// @Failure      401  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /document-templates [get]
func (h *TemplateHandler) GetAll(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	templates, err := h.store.ListDocumentTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetByID returns a template.
//
// @Summary      Get a template
// @Tags         Templates
// @Produce      json
// @Param        id     path  string  true  "Template ID"
// @Success      200  {object} model.DocumentTemplate
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /document-templates/{id} [get]
func (h *TemplateHandler) GetByID(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tpl, err := h.store.GetDocumentTemplate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// Create adds a custom template owned by the caller.
//
// @Summary      Create a custom template
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Param        body   body  model.InsertDocumentTemplate  true  "Document template"
// @Success      201  {object} model.DocumentTemplate
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /document-templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.InsertDocumentTemplate
	if !bindJSON(c, &req) {
		return
	}
	req.CreatedBy = &userID
	req.IsCustom = true

	tpl, err := h.store.CreateDocumentTemplate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// Update changes a template. Only its creator may.
//
// @Summary      Update own template
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "Template ID"
// @Param        body   body  model.DocumentTemplatePatch  true  "Fields to change"
// @Success      200  {object} model.DocumentTemplate
// @Failure      400  {object} handler.ErrorResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /document-templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tpl, ok := h.ownTemplate(c, userID)
	if !ok {
		return
	}

	var patch model.DocumentTemplatePatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.store.UpdateDocumentTemplate(c.Request.Context(), tpl.ID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes the template; documents made from it keep their content.
//
// @Summary      Delete own template
// @Tags         Templates
// @Produce      json
// @Param        id     path  string  true  "Template ID"
// @Success      200  {object} handler.SuccessResponse
// @Failure      401  {object} handler.ErrorResponse
// @Failure      403  {object} handler.ErrorResponse
// @Failure      404  {object} handler.ErrorResponse
// @Security     SessionCookie
// @Router       /document-templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tpl, ok := h.ownTemplate(c, userID)
	if !ok {
		return
	}

	if err := h.store.DeleteDocumentTemplate(c.Request.Context(), tpl.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
