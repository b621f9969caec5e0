package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRole string

const (
	ProfileRoleAdmin   ProfileRole = "admin"
	ProfileRoleManager ProfileRole = "manager"
	ProfileRoleMember  ProfileRole = "member"
)

// Profile is an application user.
type Profile struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string      `gorm:"uniqueIndex;not null" json:"email"`
	FullName         *string     `json:"full_name"`
	AvatarURL        *string     `json:"avatar_url"`
	Role             ProfileRole `gorm:"not null" json:"role"`
	TelegramID       *string     `json:"telegram_id"`
	TelegramUsername *string     `json:"telegram_username"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type InsertProfile struct {
	Email     string      `json:"email" binding:"required,email"`
	FullName  *string     `json:"full_name" binding:"omitempty,max=200"`
	AvatarURL *string     `json:"avatar_url" binding:"omitempty,url"`
	Role      ProfileRole `json:"role" binding:"omitempty,oneof=admin manager member"`
}

// Profile builds the record with server defaults filled in.
func (in InsertProfile) Profile(now time.Time) Profile {
	role := in.Role
	if role == "" {
		role = ProfileRoleMember
	}
	return Profile{
		Email:     strings.ToLower(in.Email),
		FullName:  cloneString(in.FullName),
		AvatarURL: cloneString(in.AvatarURL),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type ProfilePatch struct {
	Email            *string          `json:"email" binding:"omitempty,email"`
	FullName         Nullable[string] `json:"full_name"`
	AvatarURL        Nullable[string] `json:"avatar_url"`
	Role             *ProfileRole     `json:"role" binding:"omitempty,oneof=admin manager member"`
	TelegramID       Nullable[string] `json:"telegram_id"`
	TelegramUsername Nullable[string] `json:"telegram_username"`
}

func (p ProfilePatch) Apply(dst *Profile) {
	if p.Email != nil {
		dst.Email = strings.ToLower(*p.Email)
	}
	p.FullName.apply(&dst.FullName)
	p.AvatarURL.apply(&dst.AvatarURL)
	if p.Role != nil {
		dst.Role = *p.Role
	}
	p.TelegramID.apply(&dst.TelegramID)
	p.TelegramUsername.apply(&dst.TelegramUsername)
}

func (p ProfilePatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Email != nil {
		changes["email"] = strings.ToLower(*p.Email)
	}
	if p.FullName.Set {
		changes["full_name"] = p.FullName.change()
	}
	if p.AvatarURL.Set {
		changes["avatar_url"] = p.AvatarURL.change()
	}
	if p.Role != nil {
		changes["role"] = *p.Role
	}
	if p.TelegramID.Set {
		changes["telegram_id"] = p.TelegramID.change()
	}
	if p.TelegramUsername.Set {
		changes["telegram_username"] = p.TelegramUsername.change()
	}
	return changes
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Clone returns a copy of p that shares no memory with it.
func (p Profile) Clone() Profile {
	p.FullName = cloneString(p.FullName)
	p.AvatarURL = cloneString(p.AvatarURL)
	p.TelegramID = cloneString(p.TelegramID)
	p.TelegramUsername = cloneString(p.TelegramUsername)
	return p
}
