package model

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusReview   DocumentStatus = "review"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusSigned   DocumentStatus = "signed"
	DocumentStatusArchived DocumentStatus = "archived"
)

const DefaultTemplateCategory = "Прочее"

var (
	emptyJSONArray  = datatypes.JSON(`[]`)
	emptyJSONObject = datatypes.JSON(`{}`)
)

// DocumentTemplate is a reusable document skeleton. Fields describes the
// placeholders a document fills in, as a JSON array.
type DocumentTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"not null" json:"description"`
	Category    string         `gorm:"not null" json:"category"`
	Content     string         `gorm:"not null" json:"content"`
	Fields      datatypes.JSON `gorm:"not null" json:"fields"`
	IsCustom    bool           `gorm:"not null" json:"is_custom"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Creator *Profile `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertDocumentTemplate struct {
	Title       string         `json:"title" binding:"required,max=200"`
	Description string         `json:"description"`
	Category    string         `json:"category" binding:"max=100"`
	Content     string         `json:"content" binding:"required"`
	Fields      datatypes.JSON `json:"fields" binding:"omitempty,json_array"`
	IsCustom    bool           `json:"is_custom"`
	CreatedBy   *uuid.UUID     `json:"-"`
}

func (in InsertDocumentTemplate) DocumentTemplate(now time.Time) DocumentTemplate {
	t := DocumentTemplate{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Content:     in.Content,
		Fields:      CloneJSON(in.Fields),
		IsCustom:    in.IsCustom,
		CreatedBy:   cloneUUID(in.CreatedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Category == "" {
		t.Category = DefaultTemplateCategory
	}
	if len(t.Fields) == 0 {
		t.Fields = CloneJSON(emptyJSONArray)
	}
	return t
}

type DocumentTemplatePatch struct {
	Title       *string         `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string         `json:"description"`
	Category    *string         `json:"category" binding:"omitempty,min=1,max=100"`
	Content     *string         `json:"content" binding:"omitempty,min=1"`
	Fields      *datatypes.JSON `json:"fields" binding:"omitempty,json_array"`
	IsCustom    *bool           `json:"is_custom"`
}

func (p DocumentTemplatePatch) Apply(dst *DocumentTemplate) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Content != nil {
		dst.Content = *p.Content
	}
	if p.Fields != nil {
		dst.Fields = CloneJSON(*p.Fields)
	}
	if p.IsCustom != nil {
		dst.IsCustom = *p.IsCustom
	}
}

func (p DocumentTemplatePatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Category != nil {
		changes["category"] = *p.Category
	}
	if p.Content != nil {
		changes["content"] = *p.Content
	}
	if p.Fields != nil {
		changes["fields"] = *p.Fields
	}
	if p.IsCustom != nil {
		changes["is_custom"] = *p.IsCustom
	}
	return changes
}

func (t *DocumentTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Document belongs to a project and may have been produced from a template.
// Counterparty and TemplateFields are free-form JSON objects.
type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"not null" json:"description"`
	TemplateID     *uuid.UUID     `gorm:"type:uuid;index" json:"template_id"`
	ProjectID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	Status         DocumentStatus `gorm:"not null" json:"status"`
	Counterparty   datatypes.JSON `json:"counterparty"`
	TemplateFields datatypes.JSON `gorm:"not null" json:"template_fields"`
	FileURL        *string        `json:"file_url"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Template *DocumentTemplate `gorm:"foreignKey:TemplateID;constraint:OnDelete:SET NULL" json:"-"`
	Project  *Project          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Creator  *Profile          `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertDocument struct {
	Title          string         `json:"title" binding:"required,max=200"`
	Description    string         `json:"description"`
	TemplateID     *uuid.UUID     `json:"template_id"`
	ProjectID      uuid.UUID      `json:"-"`
	CreatedBy      uuid.UUID      `json:"-"`
	Status         DocumentStatus `json:"status" binding:"omitempty,oneof=draft review approved signed archived"`
	Counterparty   datatypes.JSON `json:"counterparty" binding:"omitempty,json_object"`
	TemplateFields datatypes.JSON `json:"template_fields" binding:"omitempty,json_object"`
	FileURL        *string        `json:"file_url" binding:"omitempty,url"`
}

func (in InsertDocument) Document(now time.Time) Document {
	d := Document{
		Title:          in.Title,
		Description:    in.Description,
		TemplateID:     cloneUUID(in.TemplateID),
		ProjectID:      in.ProjectID,
		CreatedBy:      in.CreatedBy,
		Status:         in.Status,
		Counterparty:   CloneJSON(in.Counterparty),
		TemplateFields: CloneJSON(in.TemplateFields),
		FileURL:        cloneString(in.FileURL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if d.Status == "" {
		d.Status = DocumentStatusDraft
	}
	if len(d.TemplateFields) == 0 {
		d.TemplateFields = CloneJSON(emptyJSONObject)
	}
	return d
}

type DocumentPatch struct {
	Title          *string                  `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string                  `json:"description"`
	TemplateID     Nullable[uuid.UUID]      `json:"template_id"`
	Status         *DocumentStatus          `json:"status" binding:"omitempty,oneof=draft review approved signed archived"`
	Counterparty   Nullable[datatypes.JSON] `json:"counterparty"`
	TemplateFields *datatypes.JSON          `json:"template_fields" binding:"omitempty,json_object"`
	FileURL        Nullable[string]         `json:"file_url"`
}

func (p DocumentPatch) Apply(dst *Document) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	p.TemplateID.apply(&dst.TemplateID)
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Counterparty.Set {
		if p.Counterparty.Value == nil {
			dst.Counterparty = nil
		} else {
			dst.Counterparty = CloneJSON(*p.Counterparty.Value)
		}
	}
	if p.TemplateFields != nil {
		dst.TemplateFields = CloneJSON(*p.TemplateFields)
	}
	p.FileURL.apply(&dst.FileURL)
}

func (p DocumentPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.TemplateID.Set {
		changes["template_id"] = p.TemplateID.change()
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.Counterparty.Set {
		changes["counterparty"] = p.Counterparty.change()
	}
	if p.TemplateFields != nil {
		changes["template_fields"] = *p.TemplateFields
	}
	if p.FileURL.Set {
		changes["file_url"] = p.FileURL.change()
	}
	return changes
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// CloneJSON returns an independent copy. Both nil and a JSON null yield nil.
func CloneJSON(j datatypes.JSON) datatypes.JSON {
	if j == nil || string(bytes.TrimSpace(j)) == "null" {
		return nil
	}
	return datatypes.JSON(bytes.Clone(j))
}

// Clone returns a copy of t that shares no memory with it.
func (t DocumentTemplate) Clone() DocumentTemplate {
	t.Fields = CloneJSON(t.Fields)
	t.CreatedBy = cloneUUID(t.CreatedBy)
	return t
}

// Clone returns a copy of d that shares no memory with it.
func (d Document) Clone() Document {
	d.TemplateID = cloneUUID(d.TemplateID)
	d.Counterparty = CloneJSON(d.Counterparty)
	d.TemplateFields = CloneJSON(d.TemplateFields)
	d.FileURL = cloneString(d.FileURL)
	return d
}
