package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"herms/internal/model"
)

// ListDocuments returns a project's documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context, projectID uuid.UUID) ([]model.Document, error) {
	documents := []model.Document{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id").
		Find(&documents).Error
	if err != nil {
		return nil, translate(err, "document")
	}
	return documents, nil
}

// GetDocument returns the document with the given id or storage.ErrNotFound.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var document model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&document).Error; err != nil {
		return nil, translate(err, "document")
	}
	return &document, nil
}

// CreateDocument stores a document and bumps its project's last_activity.
func (r *Repository) CreateDocument(ctx context.Context, in model.InsertDocument) (*model.Document, error) {
	document := in.Document(r.clock.Now())
	document.ID = uuid.New()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, &document, document.ID); err != nil {
			return err
		}
		return touchProject(tx, document.ProjectID, document.CreatedAt)
	})
	if err != nil {
		return nil, translate(err, "document")
	}
	return &document, nil
}

// UpdateDocument applies patch and bumps the project's last_activity.
func (r *Repository) UpdateDocument(ctx context.Context, id uuid.UUID, patch model.DocumentPatch) (*model.Document, error) {
	document, err := update(ctx, r, id, patch.Changes(),
		func(d *model.Document) time.Time { return d.UpdatedAt },
		func(tx *gorm.DB, d *model.Document) error { return touchProject(tx, d.ProjectID, d.UpdatedAt) })
	if err != nil {
		return nil, translate(err, "document")
	}
	return document, nil
}

// DeleteDocument removes a document. Deleting a missing document is a no-op.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var document model.Document
		if err := tx.Select("id", "project_id").Where("id = ?", id).First(&document).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Document{}, "id = ?", id).Error; err != nil {
			return err
		}
		return touchProject(tx, document.ProjectID, r.clock.Now())
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return translate(err, "document")
}

// ListDocumentTemplates returns every template, newest first.
func (r *Repository) ListDocumentTemplates(ctx context.Context) ([]model.DocumentTemplate, error) {
	templates := []model.DocumentTemplate{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&templates).Error
	if err != nil {
		return nil, translate(err, "document template")
	}
	return templates, nil
}

// GetDocumentTemplate returns the template with the given id or storage.ErrNotFound.
func (r *Repository) GetDocumentTemplate(ctx context.Context, id uuid.UUID) (*model.DocumentTemplate, error) {
	var template model.DocumentTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		return nil, translate(err, "document template")
	}
	return &template, nil
}

// CreateDocumentTemplate stores a template.
func (r *Repository) CreateDocumentTemplate(ctx context.Context, in model.InsertDocumentTemplate) (*model.DocumentTemplate, error) {
	template := in.DocumentTemplate(r.clock.Now())
	template.ID = uuid.New()
	if err := insert(r.db.WithContext(ctx), &template, template.ID); err != nil {
		return nil, translate(err, "document template")
	}
	return &template, nil
}

// UpdateDocumentTemplate applies patch to a template.
func (r *Repository) UpdateDocumentTemplate(ctx context.Context, id uuid.UUID, patch model.DocumentTemplatePatch) (*model.DocumentTemplate, error) {
	template, err := update(ctx, r, id, patch.Changes(),
		func(t *model.DocumentTemplate) time.Time { return t.UpdatedAt }, nil)
	if err != nil {
		return nil, translate(err, "document template")
	}
	return template, nil
}

// DeleteDocumentTemplate leaves documents in place with template_id cleared.
func (r *Repository) DeleteDocumentTemplate(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&model.DocumentTemplate{}, "id = ?", id).Error
	return translate(err, "document template")
}
