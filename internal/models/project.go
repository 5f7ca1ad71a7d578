package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is the unit of ownership for members and submissions. Deleting a
// project removes both; the creator reference survives user deletion.
type Project struct {
	ID              uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Name            string     `gorm:"size:200;not null" json:"name"`
	Description     *string    `gorm:"type:text" json:"description"`
	DetectorVersion *string    `gorm:"size:100" json:"detector_version"`
	CreatedByUserID *uuid.UUID `gorm:"type:char(36);index" json:"created_by_user_id"`
	CreatedByUser   *User      `gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:SET NULL" json:"created_by_user,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Archived reports whether the project has been archived.
func (p *Project) Archived() bool { return p.ArchivedAt != nil }
