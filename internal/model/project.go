package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusArchived  ProjectStatus = "archived"
)

const DefaultProjectColor = "#3B82F6"

type Project struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"not null" json:"description"`
	Color        string        `gorm:"not null" json:"color"`
	Status       ProjectStatus `gorm:"not null" json:"status"`
	OwnerID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastActivity time.Time     `gorm:"index" json:"last_activity"`

	Owner *Profile `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertProject struct {
	Title       string        `json:"title" binding:"required,max=200"`
	Description string        `json:"description"`
	Color       string        `json:"color" binding:"omitempty,hexcolor"`
	Status      ProjectStatus `json:"status" binding:"omitempty,oneof=active completed on_hold archived"`
	OwnerID     uuid.UUID     `json:"-"`
}

func (in InsertProject) Project(now time.Time) Project {
	p := Project{
		Title:        in.Title,
		Description:  in.Description,
		Color:        in.Color,
		Status:       in.Status,
		OwnerID:      in.OwnerID,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}
	if p.Color == "" {
		p.Color = DefaultProjectColor
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return p
}

// ProjectPatch changes a project. The owner is not transferable through it.
type ProjectPatch struct {
	Title       *string        `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string        `json:"description"`
	Color       *string        `json:"color" binding:"omitempty,hexcolor"`
	Status      *ProjectStatus `json:"status" binding:"omitempty,oneof=active completed on_hold archived"`
}

func (p ProjectPatch) Apply(dst *Project) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Color != nil {
		dst.Color = *p.Color
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
}

func (p ProjectPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Color != nil {
		changes["color"] = *p.Color
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	return changes
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// ProjectMember links a profile to a project it does not own.
type ProjectMember struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user" json:"project_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user;index" json:"user_id"`
	Role      MemberRole `gorm:"not null" json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	User    *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertProjectMember struct {
	ProjectID uuid.UUID  `json:"-"`
	UserID    uuid.UUID  `json:"user_id" binding:"required"`
	Role      MemberRole `json:"role" binding:"omitempty,oneof=admin member"`
}

func (in InsertProjectMember) ProjectMember(now time.Time) ProjectMember {
	role := in.Role
	if role == "" {
		role = MemberRoleMember
	}
	return ProjectMember{
		ProjectID: in.ProjectID,
		UserID:    in.UserID,
		Role:      role,
		JoinedAt:  now,
	}
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
