package services

import (
	"errors"
	"strings"

	"github.com/inspectra/inspectra/pkg/response"
	"gorm.io/gorm"
)

// Error taxonomy. Not-found errors stay distinct per entity so handlers and
// clients can tell which side of a relation was missing.
var (
	ErrProjectNotFound    = response.NewNotFound("Project not found")
	ErrUserNotFound       = response.NewNotFound("User not found")
	ErrMemberNotFound     = response.NewNotFound("Member not found")
	ErrSubmissionNotFound = response.NewNotFound("Submission not found")
	ErrAnomalyNotFound    = response.NewNotFound("Anomaly not found")

	ErrPermissionDenied = response.NewForbidden("You do not have permission to perform this action")
	ErrInvalidSecret    = response.NewForbidden("Invalid webhook secret")

	ErrAlreadyMember      = response.NewConflict("User is already a member of this project")
	ErrEmailTaken         = response.NewConflict("A user with this email already exists")
	ErrUserHasSubmissions = response.NewConflict("User has submissions and cannot be deleted")

	ErrInvalidStateTransition = response.NewBadRequest("Invalid state transition")
)

// isDuplicateKey reports whether err is a unique or primary-key violation,
// covering the three supported drivers.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
