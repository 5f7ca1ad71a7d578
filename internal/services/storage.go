package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/inspectra/inspectra/internal/config"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/logger"
	"github.com/inspectra/inspectra/pkg/response"
	"gorm.io/gorm"
)

// Object key layout: {projectID}/images/{filename} and {projectID}/designs/{filename}.

// ObjectStore is the blob-store surface the core needs. The MinIO client
// implements it in production; tests substitute an in-memory fake.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration, download bool) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// MinioStore is the MinIO-backed ObjectStore. All objects live in a single
// configured bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	store := &MinioStore{client: client, bucket: cfg.Bucket}
	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *MinioStore) PresignGet(ctx context.Context, key string, expires time.Duration, download bool) (string, error) {
	reqParams := make(url.Values)
	if download {
		reqParams.Set("response-content-disposition", "attachment")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinioStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// --- Upload / presign orchestration ---

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

var allowedDesignTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
}

// StorageService ties uploads to submissions: an image upload stores the
// bytes, creates a queued submission and hands it to the detection pipeline.
type StorageService struct {
	db          *gorm.DB
	store       ObjectStore
	submissions *SubmissionService
	detection   *DetectionService
}

func NewStorageService(db *gorm.DB, store ObjectStore, submissions *SubmissionService, detection *DetectionService) *StorageService {
	return &StorageService{
		db:          db,
		store:       store,
		submissions: submissions,
		detection:   detection,
	}
}

type ImageUploadResult struct {
	Filename     string    `json:"filename"`
	ProjectID    uuid.UUID `json:"project_id"`
	ObjectKey    string    `json:"object_key"`
	SubmissionID uuid.UUID `json:"submission_id"`
}

type DesignUploadResult struct {
	Filename  string    `json:"filename"`
	ProjectID uuid.UUID `json:"project_id"`
	ObjectKey string    `json:"object_key"`
}

type PresignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// UploadImage stores an inspection image, creates its submission and triggers
// detection. The trigger is fire-and-forget: the submission is created and
// visible even if the detector cannot be reached.
func (s *StorageService) UploadImage(ctx context.Context, projectID, userID uuid.UUID, filename, contentType string, data []byte) (*ImageUploadResult, error) {
	if filename == "" {
		return nil, response.NewBadRequest("No filename provided")
	}
	if !allowedImageTypes[contentType] {
		return nil, response.NewBadRequest(fmt.Sprintf("Invalid file type. Allowed: PNG, JPEG. Got: %s", contentType))
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	objectKey := fmt.Sprintf("%s/images/%s", projectID, filename)
	if err := s.store.Put(ctx, objectKey, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	submission, err := s.submissions.Create(projectID, userID, objectKey)
	if err != nil {
		return nil, err
	}

	// Creation and triggering are two steps: a trigger failure leaves the
	// submission queued and retryable rather than lost.
	s.detection.Trigger(submission.ID, projectID, objectKey)

	return &ImageUploadResult{
		Filename:     filename,
		ProjectID:    projectID,
		ObjectKey:    objectKey,
		SubmissionID: submission.ID,
	}, nil
}

// UploadDesign stores a design-reference document for a project.
func (s *StorageService) UploadDesign(ctx context.Context, projectID uuid.UUID, filename, contentType string, data []byte) (*DesignUploadResult, error) {
	if filename == "" {
		return nil, response.NewBadRequest("No filename provided")
	}
	if !allowedDesignTypes[contentType] {
		return nil, response.NewBadRequest(fmt.Sprintf("Invalid file type. Allowed: PDF, TXT. Got: %s", contentType))
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, ErrProjectNotFound
	}

	objectKey := fmt.Sprintf("%s/designs/%s", projectID, filename)
	if err := s.store.Put(ctx, objectKey, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store design: %w", err)
	}

	return &DesignUploadResult{
		Filename:  filename,
		ProjectID: projectID,
		ObjectKey: objectKey,
	}, nil
}

// Presign returns a time-limited GET URL for an object key.
func (s *StorageService) Presign(ctx context.Context, objectKey string, expiresSeconds int, download bool) (*PresignedURL, error) {
	if expiresSeconds <= 0 {
		expiresSeconds = 900
	}
	url, err := s.store.PresignGet(ctx, objectKey, time.Duration(expiresSeconds)*time.Second, download)
	if err != nil {
		return nil, fmt.Errorf("failed to presign object: %w", err)
	}
	return &PresignedURL{URL: url, ExpiresIn: expiresSeconds}, nil
}

// CleanupProject removes all stored objects under a project prefix. Failures
// are logged, never propagated: storage cleanup must not block deletion.
func (s *StorageService) CleanupProject(ctx context.Context, projectID uuid.UUID) {
	prefix := projectID.String() + "/"
	if err := s.store.DeletePrefix(ctx, prefix); err != nil {
		logger.Warn().Err(err).Str("project_id", projectID.String()).Msg("best-effort storage cleanup failed")
		LogWarning("Storage", "CleanupFailed", "Failed to remove objects for deleted project: "+err.Error(), "", map[string]interface{}{
			"project_id": projectID.String(),
		})
	}
}
