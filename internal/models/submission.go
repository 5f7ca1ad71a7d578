package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission statuses. queued → running → {complete, complete_with_errors,
// failed}; failed and complete_with_errors may re-enter queued via retry.
const (
	StatusQueued             = "queued"
	StatusRunning            = "running"
	StatusComplete           = "complete"
	StatusCompleteWithErrors = "complete_with_errors"
	StatusFailed             = "failed"
)

// Pass/fail verdicts.
const (
	PassFailPass    = "pass"
	PassFailFail    = "fail"
	PassFailUnknown = "unknown"
)

// ValidStatus reports whether s is a known submission status.
func ValidStatus(s string) bool {
	switch s {
	case StatusQueued, StatusRunning, StatusComplete, StatusCompleteWithErrors, StatusFailed:
		return true
	}
	return false
}

// ValidPassFail reports whether s is a known pass/fail verdict.
func ValidPassFail(s string) bool {
	return s == PassFailPass || s == PassFailFail || s == PassFailUnknown
}

// Retryable reports whether a submission in status s may be reset to queued.
func Retryable(s string) bool {
	return s == StatusFailed || s == StatusCompleteWithErrors
}

// Terminal reports whether status s is an end state of the detection lifecycle.
func Terminal(s string) bool {
	return s == StatusComplete || s == StatusCompleteWithErrors || s == StatusFailed
}

// Submission is one request to analyze a single uploaded image. It is created
// queued/unknown the moment an upload succeeds and is mutated only by the
// detection pipeline or an explicit retry.
type Submission struct {
	ID                uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID         uuid.UUID `gorm:"type:char(36);index;not null" json:"project_id"`
	Project           *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	SubmittedByUserID uuid.UUID `gorm:"type:char(36);index;not null" json:"submitted_by_user_id"`
	SubmittedByUser   *User     `gorm:"foreignKey:SubmittedByUserID;constraint:OnDelete:RESTRICT" json:"submitted_by_user,omitempty"`
	SubmittedAt       time.Time `gorm:"autoCreateTime;index" json:"submitted_at"`
	ImageID           string    `gorm:"size:500;not null" json:"image_id"` // object storage key
	Status            string    `gorm:"size:50;not null" json:"status"`
	PassFail          string    `gorm:"size:20;not null" json:"pass_fail"`
	AnomalyCount      *int      `json:"anomaly_count"`
	ErrorMessage      *string   `gorm:"type:text" json:"error_message"`
}

func (Submission) TableName() string { return "submissions" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
