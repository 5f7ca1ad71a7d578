package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		role   string
		action Action
		want   bool
	}{
		{models.RoleOwner, ActionView, true},
		{models.RoleOwner, ActionDelete, true},
		{models.RoleOwner, ActionTransferOwnership, true},
		{models.RoleEditor, ActionView, true},
		{models.RoleEditor, ActionEdit, true},
		{models.RoleEditor, ActionArchive, false},
		{models.RoleEditor, ActionDelete, false},
		{models.RoleEditor, ActionManageMembers, false},
		{models.RoleViewer, ActionView, true},
		{models.RoleViewer, ActionEdit, false},
		{"bogus", ActionView, false},
	}

	for _, tt := range tests {
		if got := CanPerform(tt.role, tt.action); got != tt.want {
			t.Errorf("CanPerform(%q, %s) = %v, expected %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestMemberAdd(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	member, err := svc.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: models.RoleEditor})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if member.Role != models.RoleEditor {
		t.Errorf("Role = %q, expected editor", member.Role)
	}

	// Same pair again is a conflict
	_, err = svc.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: models.RoleViewer})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("duplicate Add error = %v, expected ErrAlreadyMember", err)
	}
}

func TestMemberAdd_DuplicateKeyMapsToConflict(t *testing.T) {
	db := newTestDB(t)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	member := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: models.RoleViewer}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// An insert racing past the existence check loses on the composite PK;
	// that violation must read as the membership conflict, not a raw DB error.
	dup := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: models.RoleEditor}
	err := db.Create(&dup).Error
	if err == nil {
		t.Fatal("expected composite-PK violation")
	}
	if !isDuplicateKey(err) {
		t.Errorf("driver error not recognized as duplicate key: %v", err)
	}
}

func TestMemberAdd_InvalidRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: "admin"}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestMemberAdd_MissingSides(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	if _, err := svc.Add(uuid.New(), &AddMemberRequest{UserID: user.ID, Role: models.RoleViewer}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("error = %v, expected ErrProjectNotFound", err)
	}
	if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: uuid.New(), Role: models.RoleViewer}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, expected ErrUserNotFound", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	mustAdd := func(userID uuid.UUID, role string) {
		t.Helper()
		if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: userID, Role: role}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	mustAdd(alice.ID, models.RoleOwner)
	mustAdd(bob.ID, models.RoleViewer)

	newOwner, err := svc.TransferOwnership(project.ID, bob.ID)
	if err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}
	if newOwner.Role != models.RoleOwner {
		t.Errorf("new owner role = %q, expected owner", newOwner.Role)
	}

	// Exactly one owner, and the old owner became an editor
	var owners []models.ProjectMember
	if err := db.Where("project_id = ? AND role = ?", project.ID, models.RoleOwner).Find(&owners).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(owners) != 1 || owners[0].UserID != bob.ID {
		t.Fatalf("expected bob as the single owner, got %d owners", len(owners))
	}

	demoted, err := svc.Get(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if demoted.Role != models.RoleEditor {
		t.Errorf("previous owner role = %q, expected editor", demoted.Role)
	}
}

func TestTransferOwnership_ToCurrentOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	alice := createTestUser(t, db, "alice@example.com")

	if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: alice.ID, Role: models.RoleOwner}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := svc.TransferOwnership(project.ID, alice.ID); err != nil {
		t.Fatalf("self-transfer failed: %v", err)
	}

	member, err := svc.Get(project.ID, alice.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("role = %q, expected owner to stay owner", member.Role)
	}
}

func TestTransferOwnership_NonMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")

	if _, err := svc.TransferOwnership(project.ID, uuid.New()); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("error = %v, expected ErrMemberNotFound", err)
	}
}

func TestAuthorize(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	viewer := createTestUser(t, db, "viewer@example.com")

	if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: viewer.ID, Role: models.RoleViewer}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Authorize(project.ID, viewer.ID, ActionView); err != nil {
		t.Errorf("viewer should be allowed to view: %v", err)
	}
	if err := svc.Authorize(project.ID, viewer.ID, ActionEdit); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("error = %v, expected ErrPermissionDenied", err)
	}
	if err := svc.Authorize(project.ID, uuid.New(), ActionView); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("non-member error = %v, expected ErrPermissionDenied", err)
	}
}

func TestMemberRemove(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemberService(db)
	project := createTestProject(t, db, "p1")
	user := createTestUser(t, db, "a@example.com")

	if _, err := svc.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: models.RoleViewer}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := svc.Remove(project.ID, user.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := svc.Remove(project.ID, user.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("second Remove error = %v, expected ErrMemberNotFound", err)
	}
}
