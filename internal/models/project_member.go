package models

import (
	"time"

	"github.com/google/uuid"
)

// Project roles. Exactly one owner per project is expected under normal
// operation; the ownership-transfer protocol maintains that invariant.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the known project roles.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleEditor || role == RoleViewer
}

// ProjectMember links a user to a project with a role. The composite primary
// key makes a duplicate (project, user) pair a database-level conflict.
type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:char(36);primaryKey" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role      string    `gorm:"size:50;not null" json:"role"` // owner, editor, viewer
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
