package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/response"
	"gorm.io/gorm"
)

// AnomalyService is the anomaly ledger. Rows belong to exactly one submission
// for their whole life and disappear with it.
type AnomalyService struct {
	db *gorm.DB
}

func NewAnomalyService(db *gorm.DB) *AnomalyService {
	return &AnomalyService{db: db}
}

type CreateAnomalyRequest struct {
	Label       string   `json:"label" binding:"required"`
	Description *string  `json:"description"`
	Severity    *string  `json:"severity"`
	Confidence  *float64 `json:"confidence"`
}

type UpdateAnomalyRequest struct {
	Label       *string  `json:"label"`
	Description *string  `json:"description"`
	Severity    *string  `json:"severity"`
	Confidence  *float64 `json:"confidence"`
}

func validateAnomalyFields(severity *string, confidence *float64) error {
	if severity != nil && !models.ValidSeverity(*severity) {
		return response.NewBadRequest("invalid severity, must be 'low', 'med' or 'high'")
	}
	// Out-of-range confidence is rejected, not clamped.
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return response.NewBadRequest("confidence must be within [0, 1]")
	}
	return nil
}

func (s *AnomalyService) Create(submissionID uuid.UUID, req *CreateAnomalyRequest) (*models.Anomaly, error) {
	if err := validateAnomalyFields(req.Severity, req.Confidence); err != nil {
		return nil, err
	}

	var submission models.Submission
	if err := s.db.First(&submission, "id = ?", submissionID).Error; err != nil {
		return nil, ErrSubmissionNotFound
	}

	anomaly := models.Anomaly{
		SubmissionID: submissionID,
		Label:        req.Label,
		Description:  req.Description,
		Severity:     req.Severity,
		Confidence:   req.Confidence,
	}

	if err := s.db.Create(&anomaly).Error; err != nil {
		return nil, err
	}
	return &anomaly, nil
}

func (s *AnomalyService) Get(anomalyID uuid.UUID) (*models.Anomaly, error) {
	var anomaly models.Anomaly
	if err := s.db.First(&anomaly, "id = ?", anomalyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnomalyNotFound
		}
		return nil, err
	}
	return &anomaly, nil
}

// List returns a submission's anomalies in insertion order, optionally
// filtered by severity.
func (s *AnomalyService) List(submissionID uuid.UUID, severity string) ([]models.Anomaly, error) {
	var submission models.Submission
	if err := s.db.First(&submission, "id = ?", submissionID).Error; err != nil {
		return nil, ErrSubmissionNotFound
	}

	query := s.db.Where("submission_id = ?", submissionID)
	if severity != "" {
		if !models.ValidSeverity(severity) {
			return nil, response.NewBadRequest("invalid severity filter: " + severity)
		}
		query = query.Where("severity = ?", severity)
	}

	var anomalies []models.Anomaly
	if err := query.Order("created_at ASC").Find(&anomalies).Error; err != nil {
		return nil, err
	}
	return anomalies, nil
}

// Update applies a partial update to an anomaly.
func (s *AnomalyService) Update(anomalyID uuid.UUID, req *UpdateAnomalyRequest) (*models.Anomaly, error) {
	if err := validateAnomalyFields(req.Severity, req.Confidence); err != nil {
		return nil, err
	}

	anomaly, err := s.Get(anomalyID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Severity != nil {
		updates["severity"] = *req.Severity
	}
	if req.Confidence != nil {
		updates["confidence"] = *req.Confidence
	}

	if len(updates) > 0 {
		if err := s.db.Model(anomaly).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return anomaly, nil
}

func (s *AnomalyService) Delete(anomalyID uuid.UUID) error {
	result := s.db.Delete(&models.Anomaly{}, "id = ?", anomalyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnomalyNotFound
	}
	return nil
}
