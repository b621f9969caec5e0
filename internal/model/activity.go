package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityProject  EntityType = "project"
	EntityTask     EntityType = "task"
	EntityComment  EntityType = "comment"
	EntityDocument EntityType = "document"
	EntityMember   EntityType = "member"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionJoined  = "joined"
	ActionLeft    = "left"
)

// ActivityLog is an append-only audit entry scoped to a project.
type ActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	Action     string         `gorm:"not null" json:"action"`
	EntityType EntityType     `gorm:"not null" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null" json:"entity_id"`
	Details    datatypes.JSON `gorm:"not null" json:"details"`
	CreatedAt  time.Time      `json:"created_at"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	User    *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type InsertActivityLog struct {
	ProjectID  uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType EntityType
	EntityID   uuid.UUID
	Details    datatypes.JSON
}

func (in InsertActivityLog) ActivityLog(now time.Time) ActivityLog {
	a := ActivityLog{
		ProjectID:  in.ProjectID,
		UserID:     in.UserID,
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Details:    CloneJSON(in.Details),
		CreatedAt:  now,
	}
	if len(a.Details) == 0 {
		a.Details = CloneJSON(emptyJSONObject)
	}
	return a
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a ActivityLog) Clone() ActivityLog {
	a.Details = CloneJSON(a.Details)
	return a
}
