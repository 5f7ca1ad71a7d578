package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Anomaly severities.
const (
	SeverityLow  = "low"
	SeverityMed  = "med"
	SeverityHigh = "high"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMed || s == SeverityHigh
}

// Anomaly is a single finding attached to a submission. Rows are written by
// the detection reconciliation step (or manual curation) and are removed with
// their submission.
type Anomaly struct {
	ID           uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`
	SubmissionID uuid.UUID   `gorm:"type:char(36);index;not null" json:"submission_id"`
	Submission   *Submission `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"submission,omitempty"`
	Label        string      `gorm:"size:200;not null" json:"label"`
	Description  *string     `gorm:"type:text" json:"description"`
	Severity     *string     `gorm:"size:20" json:"severity"`  // low, med, high
	Confidence   *float64    `json:"confidence"`               // [0, 1]
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
}

func (Anomaly) TableName() string { return "anomalies" }

func (a *Anomaly) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
