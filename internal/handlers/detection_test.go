package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inspectra/inspectra/internal/config"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Submission{}, &models.Anomaly{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	detection := services.NewDetectionService(db, services.NewSyncQueue(), nil, &config.DetectorConfig{
		URL:            "http://localhost:0",
		TimeoutSeconds: 1,
		WebhookSecret:  "s3cret",
	})

	r := gin.New()
	r.POST("/api/detection/webhook", NewDetectionHandler(detection).Webhook)
	return r, db
}

func seedQueuedSubmission(t *testing.T, db *gorm.DB) *models.Submission {
	t.Helper()
	user := &models.User{Email: "a@example.com", PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("user create failed: %v", err)
	}
	project := &models.Project{Name: "p1"}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("project create failed: %v", err)
	}
	submission := &models.Submission{
		ProjectID:         project.ID,
		SubmittedByUserID: user.ID,
		ImageID:           "k",
		Status:            models.StatusQueued,
		PassFail:          models.PassFailUnknown,
	}
	if err := db.Create(submission).Error; err != nil {
		t.Fatalf("submission create failed: %v", err)
	}
	return submission
}

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	r, db := newWebhookRouter(t)
	submission := seedQueuedSubmission(t, db)

	body, _ := json.Marshal(gin.H{"submission_id": submission.ID})
	req := httptest.NewRequest("POST", "/api/detection/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(WebhookSecretHeader, "wrong")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, expected 403", w.Code)
	}

	var reloaded models.Submission
	db.First(&reloaded, "id = ?", submission.ID)
	if reloaded.Status != models.StatusQueued {
		t.Errorf("submission mutated by rejected delivery: %s", reloaded.Status)
	}
}

func TestWebhook_AppliesResult(t *testing.T) {
	r, db := newWebhookRouter(t)
	submission := seedQueuedSubmission(t, db)

	body, _ := json.Marshal(gin.H{
		"submission_id": submission.ID,
		"findings":      []gin.H{{"label": "metal shard"}},
	})
	req := httptest.NewRequest("POST", "/api/detection/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(WebhookSecretHeader, "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body: %s", w.Code, w.Body.String())
	}

	var reloaded models.Submission
	db.First(&reloaded, "id = ?", submission.ID)
	if reloaded.Status != models.StatusComplete {
		t.Errorf("Status = %q, expected complete", reloaded.Status)
	}
	if reloaded.PassFail != models.PassFailFail {
		t.Errorf("PassFail = %q, expected fail", reloaded.PassFail)
	}
}
