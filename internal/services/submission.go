package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/response"
	"gorm.io/gorm"
)

// SubmissionService owns the submission lifecycle. Every mutation is a single
// atomic read-modify-write against the persisted row, so concurrent webhook
// deliveries and retries resolve deterministically.
type SubmissionService struct {
	db *gorm.DB
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{db: db}
}

type SubmissionListRequest struct {
	Status   string `form:"status"`
	PassFail string `form:"pass_fail"`
}

type UpdateSubmissionRequest struct {
	Status       *string `json:"status"`
	PassFail     *string `json:"pass_fail"`
	AnomalyCount *int    `json:"anomaly_count"`
	ErrorMessage *string `json:"error_message"`
}

// Create inserts a new submission in the queued/unknown state. This is the
// only creation path; triggering detection is a separate step.
func (s *SubmissionService) Create(projectID, userID uuid.UUID, imageKey string) (*models.Submission, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	submission := models.Submission{
		ProjectID:         projectID,
		SubmittedByUserID: userID,
		ImageID:           imageKey,
		Status:            models.StatusQueued,
		PassFail:          models.PassFailUnknown,
	}

	if err := s.db.Create(&submission).Error; err != nil {
		return nil, err
	}

	return &submission, nil
}

// Get returns a submission scoped to its project. A submission belonging to a
// different project is indistinguishable from a missing one.
func (s *SubmissionService) Get(projectID, submissionID uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.Where("id = ? AND project_id = ?", submissionID, projectID).First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// List returns a project's submissions, newest first.
func (s *SubmissionService) List(projectID uuid.UUID, req *SubmissionListRequest) ([]models.Submission, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	query := s.db.Where("project_id = ?", projectID)
	if req.Status != "" {
		if !models.ValidStatus(req.Status) {
			return nil, response.NewBadRequest("invalid status filter: " + req.Status)
		}
		query = query.Where("status = ?", req.Status)
	}
	if req.PassFail != "" {
		if !models.ValidPassFail(req.PassFail) {
			return nil, response.NewBadRequest("invalid pass_fail filter: " + req.PassFail)
		}
		query = query.Where("pass_fail = ?", req.PassFail)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// Update applies a partial update. Only fields present in the request are
// overwritten; the detection pipeline uses this to apply results.
func (s *SubmissionService) Update(projectID, submissionID uuid.UUID, req *UpdateSubmissionRequest) (*models.Submission, error) {
	updates := make(map[string]interface{})

	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			return nil, response.NewBadRequest("invalid status: " + *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.PassFail != nil {
		if !models.ValidPassFail(*req.PassFail) {
			return nil, response.NewBadRequest("invalid pass_fail: " + *req.PassFail)
		}
		updates["pass_fail"] = *req.PassFail
	}
	if req.AnomalyCount != nil {
		if *req.AnomalyCount < 0 {
			return nil, response.NewBadRequest("anomaly_count must be >= 0")
		}
		updates["anomaly_count"] = *req.AnomalyCount
	}
	if req.ErrorMessage != nil {
		updates["error_message"] = *req.ErrorMessage
	}

	var submission models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ? AND project_id = ?", submissionID, projectID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&submission).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// Retry resets a failed or complete_with_errors submission back to queued.
// Status, pass_fail, anomaly_count and error_message move together in one
// statement; a submission is never observed mid-reset.
func (s *SubmissionService) Retry(projectID, submissionID uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ? AND project_id = ?", submissionID, projectID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if !models.Retryable(submission.Status) {
			return ErrInvalidStateTransition
		}

		if err := tx.Model(&submission).Updates(map[string]interface{}{
			"status":        models.StatusQueued,
			"pass_fail":     models.PassFailUnknown,
			"anomaly_count": nil,
			"error_message": nil,
		}).Error; err != nil {
			return err
		}

		submission.Status = models.StatusQueued
		submission.PassFail = models.PassFailUnknown
		submission.AnomalyCount = nil
		submission.ErrorMessage = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// Delete removes a submission and its anomalies.
func (s *SubmissionService) Delete(projectID, submissionID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Where("id = ? AND project_id = ?", submissionID, projectID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.Anomaly{}).Error; err != nil {
			return err
		}
		return tx.Delete(&submission).Error
	})
}
