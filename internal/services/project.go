package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/logger"
	"gorm.io/gorm"
)

// ProjectService owns project records. Deletion cascades to members,
// submissions and anomalies in one transaction, then cleans storage
// best-effort.
type ProjectService struct {
	db      *gorm.DB
	members *MemberService
	storage *StorageService
}

func NewProjectService(db *gorm.DB, members *MemberService) *ProjectService {
	return &ProjectService{db: db, members: members}
}

// SetStorage wires the storage service after construction; storage depends on
// services that are built later in bootstrap.
func (s *ProjectService) SetStorage(storage *StorageService) {
	s.storage = storage
}

type CreateProjectRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     *string `json:"description"`
	DetectorVersion *string `json:"detector_version"`
}

type UpdateProjectRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DetectorVersion *string `json:"detector_version"`
}

// Create inserts a project and makes the creator its owner.
func (s *ProjectService) Create(req *CreateProjectRequest, creatorID *uuid.UUID) (*models.Project, error) {
	project := models.Project{
		Name:            req.Name,
		Description:     req.Description,
		DetectorVersion: req.DetectorVersion,
		CreatedByUserID: creatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		if creatorID != nil {
			member := models.ProjectMember{
				ProjectID: project.ID,
				UserID:    *creatorID,
				Role:      models.RoleOwner,
			}
			return tx.Create(&member).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) Get(projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// List returns projects, newest first. Archived projects are hidden unless
// requested.
func (s *ProjectService) List(includeArchived bool) ([]models.Project, error) {
	query := s.db.Model(&models.Project{})
	if !includeArchived {
		query = query.Where("archived_at IS NULL")
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(projectID uuid.UUID, actorID *uuid.UUID, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(projectID, actorID, ActionEdit); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DetectorVersion != nil {
		updates["detector_version"] = *req.DetectorVersion
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return project, nil
}

// Archive marks a project archived. Archiving twice is an invalid transition.
func (s *ProjectService) Archive(projectID uuid.UUID, actorID *uuid.UUID) (*models.Project, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(projectID, actorID, ActionArchive); err != nil {
		return nil, err
	}
	if project.Archived() {
		return nil, ErrInvalidStateTransition
	}

	now := time.Now()
	if err := s.db.Model(project).Update("archived_at", now).Error; err != nil {
		return nil, err
	}
	project.ArchivedAt = &now
	return project, nil
}

// Unarchive clears the archived marker.
func (s *ProjectService) Unarchive(projectID uuid.UUID, actorID *uuid.UUID) (*models.Project, error) {
	project, err := s.Get(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(projectID, actorID, ActionArchive); err != nil {
		return nil, err
	}
	if !project.Archived() {
		return nil, ErrInvalidStateTransition
	}

	if err := s.db.Model(project).Update("archived_at", nil).Error; err != nil {
		return nil, err
	}
	project.ArchivedAt = nil
	return project, nil
}

// Delete removes a project with all its members, submissions and anomalies.
// Storage objects are removed after commit, best-effort.
func (s *ProjectService) Delete(projectID uuid.UUID, actorID *uuid.UUID) error {
	if _, err := s.Get(projectID); err != nil {
		return err
	}
	if err := s.authorize(projectID, actorID, ActionDelete); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var submissionIDs []uuid.UUID
		if err := tx.Model(&models.Submission{}).
			Where("project_id = ?", projectID).
			Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}

		if len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&models.Anomaly{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", projectID).Error
	})
	if err != nil {
		return err
	}

	if s.storage != nil {
		s.storage.CleanupProject(context.Background(), projectID)
	} else {
		logger.Debug().Str("project_id", projectID.String()).Msg("no storage configured, skipping object cleanup")
	}
	return nil
}

// authorize applies the role policy when an actor is known. Requests without
// an actor skip the check; per-request principals are not wired everywhere.
func (s *ProjectService) authorize(projectID uuid.UUID, actorID *uuid.UUID, action Action) error {
	if actorID == nil {
		return nil
	}
	return s.members.Authorize(projectID, *actorID, action)
}
