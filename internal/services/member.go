package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/response"
	"gorm.io/gorm"
)

// Action is a project-scoped operation subject to role policy.
type Action int

const (
	ActionView Action = iota
	ActionEdit
	ActionArchive
	ActionDelete
	ActionManageMembers
	ActionTransferOwnership
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionEdit:
		return "edit"
	case ActionArchive:
		return "archive"
	case ActionDelete:
		return "delete"
	case ActionManageMembers:
		return "manage_members"
	case ActionTransferOwnership:
		return "transfer_ownership"
	}
	return "unknown"
}

// CanPerform is the single role policy: owners may do anything, editors may
// mutate but not archive/delete/administer, viewers are read-only.
func CanPerform(role string, action Action) bool {
	switch role {
	case models.RoleOwner:
		return true
	case models.RoleEditor:
		return action == ActionView || action == ActionEdit
	case models.RoleViewer:
		return action == ActionView
	}
	return false
}

// MemberService is the membership authority: it owns the project/user/role
// relation and answers authorization queries.
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role" binding:"required"` // owner, editor, viewer
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

// Add inserts a membership row. Both sides of the relation must exist and the
// pair must not already be a member.
func (s *MemberService) Add(projectID uuid.UUID, req *AddMemberRequest) (*models.ProjectMember, error) {
	if !models.ValidRole(req.Role) {
		return nil, response.NewBadRequest("invalid role, must be 'owner', 'editor' or 'viewer'")
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", req.UserID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var existing models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, req.UserID).
		First(&existing).Error; err == nil {
		return nil, ErrAlreadyMember
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	if err := s.db.Create(&member).Error; err != nil {
		// Two concurrent adds can both pass the lookup above; the loser hits
		// the composite-PK violation here.
		if isDuplicateKey(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return &member, nil
}

// Get returns a single membership row.
func (s *MemberService) Get(projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// List returns a project's members ordered by join time.
func (s *MemberService) List(projectID uuid.UUID) ([]models.ProjectMember, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateRole overwrites a member's role.
func (s *MemberService) UpdateRole(projectID, userID uuid.UUID, req *UpdateMemberRequest) (*models.ProjectMember, error) {
	if !models.ValidRole(req.Role) {
		return nil, response.NewBadRequest("invalid role, must be 'owner', 'editor' or 'viewer'")
	}

	member, err := s.Get(projectID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", req.Role).Error; err != nil {
		return nil, err
	}
	member.Role = req.Role
	return member, nil
}

// Remove deletes a membership row.
func (s *MemberService) Remove(projectID, userID uuid.UUID) error {
	result := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// TransferOwnership demotes the current owner to editor and promotes the
// target member to owner in one transaction, so the project is never left
// ownerless or double-owned.
func (s *MemberService) TransferOwnership(projectID, newOwnerID uuid.UUID) (*models.ProjectMember, error) {
	var newOwner models.ProjectMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("project_id = ? AND user_id = ?", projectID, newOwnerID).
			First(&newOwner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		var currentOwner models.ProjectMember
		err := lockForUpdate(tx).
			Where("project_id = ? AND role = ?", projectID, models.RoleOwner).
			First(&currentOwner).Error
		if err == nil && currentOwner.UserID != newOwner.UserID {
			if err := tx.Model(&models.ProjectMember{}).
				Where("project_id = ? AND user_id = ?", projectID, currentOwner.UserID).
				Update("role", models.RoleEditor).Error; err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, newOwner.UserID).
			Update("role", models.RoleOwner).Error; err != nil {
			return err
		}
		newOwner.Role = models.RoleOwner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &newOwner, nil
}

// Authorize checks whether a user may perform an action on a project.
// Non-members are denied outright.
func (s *MemberService) Authorize(projectID, userID uuid.UUID, action Action) error {
	member, err := s.Get(projectID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return ErrPermissionDenied
		}
		return err
	}
	if !CanPerform(member.Role, action) {
		return ErrPermissionDenied
	}
	return nil
}
