package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
)

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	if _, err := svc.Create(&CreateUserRequest{Email: "a@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(&CreateUserRequest{Email: "a@example.com", Password: "password456"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("error = %v, expected ErrEmailTaken", err)
	}
}

func TestUserCreate_HashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(&CreateUserRequest{Email: "a@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestUserUpdate_EmailConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	first, err := svc.Create(&CreateUserRequest{Email: "first@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(&CreateUserRequest{Email: "second@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	taken := "second@example.com"
	if _, err := svc.Update(first.ID, &UpdateUserRequest{Email: &taken}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("error = %v, expected ErrEmailTaken", err)
	}

	// Re-submitting your own email is not a conflict
	same := "first@example.com"
	if _, err := svc.Update(first.ID, &UpdateUserRequest{Email: &same}); err != nil {
		t.Errorf("self-email update failed: %v", err)
	}
}

func TestUserDelete_BlockedBySubmissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	if _, err := NewSubmissionService(db).Create(project.ID, user.ID, "k"); err != nil {
		t.Fatalf("submission create failed: %v", err)
	}

	if err := svc.Delete(user.ID); !errors.Is(err, ErrUserHasSubmissions) {
		t.Errorf("error = %v, expected ErrUserHasSubmissions", err)
	}

	// The user must still exist
	if _, err := svc.Get(user.ID); err != nil {
		t.Errorf("user disappeared after blocked delete: %v", err)
	}
}

func TestUserDelete_DetachesProjectsAndMemberships(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	members := NewMemberService(db)
	user := createTestUser(t, db, "a@example.com")

	project := &models.Project{Name: "p1", CreatedByUserID: &user.ID}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("project create failed: %v", err)
	}
	if _, err := members.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: models.RoleOwner}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var reloaded models.Project
	if err := db.First(&reloaded, "id = ?", project.ID).Error; err != nil {
		t.Fatalf("project reload failed: %v", err)
	}
	if reloaded.CreatedByUserID != nil {
		t.Error("created_by_user_id should fall back to NULL")
	}

	var count int64
	db.Model(&models.ProjectMember{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("memberships left behind: %d", count)
	}
}

func TestUserDelete_Missing(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	if err := svc.Delete(uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, expected ErrUserNotFound", err)
	}
}

func TestUserList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	createTestUser(t, db, "a@example.com")
	createTestUser(t, db, "b@example.com")

	users, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len = %d, expected 2", len(users))
	}
}
