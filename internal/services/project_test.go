package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/models"
)

func TestProjectCreate_CreatorBecomesOwner(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db)
	svc := NewProjectService(db, members)
	creator := createTestUser(t, db, "creator@example.com")

	project, err := svc.Create(&CreateProjectRequest{Name: "assembly line 4"}, &creator.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	member, err := members.Get(project.ID, creator.ID)
	if err != nil {
		t.Fatalf("creator membership missing: %v", err)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("creator role = %q, expected owner", member.Role)
	}
}

func TestProjectArchiveLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NewMemberService(db))
	project := createTestProject(t, db, "p1")

	archived, err := svc.Archive(project.ID, nil)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !archived.Archived() {
		t.Error("project should be archived")
	}

	if _, err := svc.Archive(project.ID, nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("archiving twice = %v, expected ErrInvalidStateTransition", err)
	}

	restored, err := svc.Unarchive(project.ID, nil)
	if err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}
	if restored.Archived() {
		t.Error("project should no longer be archived")
	}

	if _, err := svc.Unarchive(project.ID, nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("unarchiving an active project = %v, expected ErrInvalidStateTransition", err)
	}
}

func TestProjectList_HidesArchived(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, NewMemberService(db))
	createTestProject(t, db, "active")
	archived := createTestProject(t, db, "archived")

	if _, err := svc.Archive(archived.ID, nil); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	visible, err := svc.List(false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(visible) != 1 || visible[0].Name != "active" {
		t.Errorf("expected only the active project, got %d rows", len(visible))
	}

	all, err := svc.List(true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 rows with include_archived, got %d", len(all))
	}
}

func TestProjectUpdate_Authorization(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db)
	svc := NewProjectService(db, members)
	project := createTestProject(t, db, "p1")
	viewer := createTestUser(t, db, "viewer@example.com")

	if _, err := members.Add(project.ID, &AddMemberRequest{UserID: viewer.ID, Role: models.RoleViewer}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	name := "renamed"
	if _, err := svc.Update(project.ID, &viewer.ID, &UpdateProjectRequest{Name: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("viewer update error = %v, expected ErrPermissionDenied", err)
	}

	// Without an actor the check is skipped
	updated, err := svc.Update(project.ID, nil, &UpdateProjectRequest{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != name {
		t.Errorf("Name = %q, expected %q", updated.Name, name)
	}
}

func TestProjectDelete_Cascades(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db)
	svc := NewProjectService(db, members)
	submissions := NewSubmissionService(db)

	project := createTestProject(t, db, "doomed")
	user := createTestUser(t, db, "a@example.com")
	if _, err := members.Add(project.ID, &AddMemberRequest{UserID: user.ID, Role: models.RoleOwner}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	var submissionIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		s, err := submissions.Create(project.ID, user.ID, "k")
		if err != nil {
			t.Fatalf("submission create failed: %v", err)
		}
		submissionIDs = append(submissionIDs, s.ID)
	}
	for i := 0; i < 5; i++ {
		a := models.Anomaly{SubmissionID: submissionIDs[i%3], Label: "debris"}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("anomaly insert failed: %v", err)
		}
	}

	// Survivors in another project must be untouched
	other := createTestProject(t, db, "survivor")
	otherSub, err := submissions.Create(other.ID, user.ID, "k")
	if err != nil {
		t.Fatalf("submission create failed: %v", err)
	}

	if err := svc.Delete(project.ID, &user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int64
	db.Model(&models.Submission{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("submissions left behind: %d", count)
	}
	db.Model(&models.Anomaly{}).Where("submission_id IN ?", submissionIDs).Count(&count)
	if count != 0 {
		t.Errorf("anomalies left behind: %d", count)
	}
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("members left behind: %d", count)
	}
	db.Model(&models.Submission{}).Where("id = ?", otherSub.ID).Count(&count)
	if count != 1 {
		t.Error("unrelated submission was deleted")
	}

	if _, err := svc.Get(project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get after delete = %v, expected ErrProjectNotFound", err)
	}
}

func TestProjectDelete_RequiresOwner(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db)
	svc := NewProjectService(db, members)
	project := createTestProject(t, db, "p1")
	editor := createTestUser(t, db, "editor@example.com")

	if _, err := members.Add(project.ID, &AddMemberRequest{UserID: editor.ID, Role: models.RoleEditor}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Delete(project.ID, &editor.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("editor delete error = %v, expected ErrPermissionDenied", err)
	}
}
