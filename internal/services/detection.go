package services

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/config"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/pkg/logger"
	"gorm.io/gorm"
)

// DetectionService orchestrates the detection lifecycle: it hands submissions
// to the external detector and reconciles delivered results back into the
// submission row and the anomaly ledger.
type DetectionService struct {
	db      *gorm.DB
	queue   TaskQueue
	store   ObjectStore
	baseURL string
	secret  string
	client  *http.Client
}

func NewDetectionService(db *gorm.DB, queue TaskQueue, store ObjectStore, cfg *config.DetectorConfig) *DetectionService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DetectionService{
		db:      db,
		queue:   queue,
		store:   store,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		secret:  cfg.WebhookSecret,
		client:  &http.Client{Timeout: timeout},
	}
}

// Trigger enqueues a detection task. It never returns an error: a trigger
// failure leaves the submission queued and retryable, which is the recovery
// path anyway.
func (s *DetectionService) Trigger(submissionID, projectID uuid.UUID, imageKey string) {
	task := &DetectionTask{
		SubmissionID: submissionID,
		ProjectID:    projectID,
		ImageKey:     imageKey,
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Str("submission_id", submissionID.String()).
			Msg("failed to enqueue detection task")
		LogError("Detection", "EnqueueFailed", err.Error(), "", map[string]interface{}{
			"submission_id": submissionID.String(),
		})
	}
}

// analyzeRequest is what we send the detector. Design documents ride along as
// presigned URLs so the detector never needs storage credentials.
type analyzeRequest struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ImageURL     string    `json:"image_url"`
	DesignURLs   []string  `json:"design_urls,omitempty"`
}

// ProcessDetectionTask presigns the submission's image and the project's
// design documents, then asks the detector to analyze them. The submission
// moves to running only after the detector accepts the job; any failure before
// that leaves it queued.
func (s *DetectionService) ProcessDetectionTask(ctx context.Context, task *DetectionTask) error {
	imageURL, err := s.store.PresignGet(ctx, task.ImageKey, 15*time.Minute, false)
	if err != nil {
		return fmt.Errorf("failed to presign image: %w", err)
	}

	designKeys, err := s.store.List(ctx, task.ProjectID.String()+"/designs/")
	if err != nil {
		return fmt.Errorf("failed to list designs: %w", err)
	}
	var designURLs []string
	for _, key := range designKeys {
		u, err := s.store.PresignGet(ctx, key, 15*time.Minute, false)
		if err != nil {
			return fmt.Errorf("failed to presign design %s: %w", key, err)
		}
		designURLs = append(designURLs, u)
	}

	body, err := json.Marshal(analyzeRequest{
		SubmissionID: task.SubmissionID,
		ImageURL:     imageURL,
		DesignURLs:   designURLs,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("detector unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("detector rejected analyze request: %s", resp.Status)
	}

	// Accepted. queued → running; a submission retried in the meantime stays
	// queued for its new run.
	if err := s.db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", task.SubmissionID, models.StatusQueued).
		Update("status", models.StatusRunning).Error; err != nil {
		return err
	}

	logger.Info().Str("submission_id", task.SubmissionID.String()).Msg("detection dispatched")
	return nil
}

// DetectionFinding is one detected anomaly in a structured detector result.
type DetectionFinding struct {
	Label       string   `json:"label"`
	Description *string  `json:"description"`
	Severity    *string  `json:"severity"`
	Confidence  *float64 `json:"confidence"`
}

// DetectionResultPayload is the webhook body the detector delivers. One of
// Findings or RawText carries the result; Error is set when the detector's
// analysis itself failed. Response is the raw-text field older detectors send.
type DetectionResultPayload struct {
	SubmissionID    uuid.UUID          `json:"submission_id"`
	Model           *string            `json:"model,omitempty"`
	InferenceTimeMs *float64           `json:"inference_time_ms,omitempty"`
	Findings        []DetectionFinding `json:"findings,omitempty"`
	RawText         *string            `json:"raw_text,omitempty"`
	Response        *string            `json:"response,omitempty"`
	Error           *string            `json:"error,omitempty"`
}

// rawText returns the free-form result text regardless of which field name the
// detector used.
func (p *DetectionResultPayload) rawText() *string {
	if p.RawText != nil {
		return p.RawText
	}
	return p.Response
}

// HandleResult reconciles a delivered detector result. Delivery is idempotent:
// a submission already in a terminal state is returned untouched, so duplicate
// webhooks are harmless. The whole reconciliation is one transaction; readers
// never observe a submission whose counters disagree with its ledger.
func (s *DetectionService) HandleResult(payload *DetectionResultPayload, providedSecret string) (*models.Submission, error) {
	if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.secret)) != 1 {
		return nil, ErrInvalidSecret
	}

	findings := payload.Findings
	if raw := payload.rawText(); len(findings) == 0 && raw != nil {
		findings = parseRawFindings(*raw)
	}

	var submission models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&submission, "id = ?", payload.SubmissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if models.Terminal(submission.Status) {
			return nil
		}

		// A result replaces whatever a previous run recorded.
		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.Anomaly{}).Error; err != nil {
			return err
		}

		for _, f := range findings {
			anomaly := models.Anomaly{
				SubmissionID: submission.ID,
				Label:        f.Label,
				Description:  f.Description,
				Severity:     normalizeSeverity(f.Severity),
				Confidence:   f.Confidence,
			}
			if anomaly.Confidence != nil && (*anomaly.Confidence < 0 || *anomaly.Confidence > 1) {
				anomaly.Confidence = nil
			}
			if err := tx.Create(&anomaly).Error; err != nil {
				return err
			}
		}

		count := len(findings)
		updates := map[string]interface{}{
			"error_message": nil,
		}

		switch {
		case payload.Error != nil && count == 0:
			updates["status"] = models.StatusFailed
			updates["pass_fail"] = models.PassFailUnknown
			updates["anomaly_count"] = nil
			updates["error_message"] = *payload.Error
		case payload.Error != nil:
			updates["status"] = models.StatusCompleteWithErrors
			updates["pass_fail"] = verdict(count)
			updates["anomaly_count"] = count
			updates["error_message"] = *payload.Error
		default:
			updates["status"] = models.StatusComplete
			updates["pass_fail"] = verdict(count)
			updates["anomaly_count"] = count
		}

		if err := tx.Model(&submission).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&submission, "id = ?", submission.ID).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("submission_id", submission.ID.String()).
		Str("status", submission.Status).
		Str("pass_fail", submission.PassFail).
		Msg("detection result reconciled")
	return &submission, nil
}

func verdict(anomalyCount int) string {
	if anomalyCount > 0 {
		return models.PassFailFail
	}
	return models.PassFailPass
}

// normalizeSeverity maps detector severity vocabulary onto the ledger's.
// Unknown values become nil rather than failing the whole delivery.
func normalizeSeverity(severity *string) *string {
	if severity == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*severity))
	if mapped, ok := severityAliases[s]; ok {
		s = mapped
	}
	if !models.ValidSeverity(s) {
		return nil
	}
	return &s
}

var severityAliases = map[string]string{
	"critical": models.SeverityHigh,
	"major":    models.SeverityMed,
	"minor":    models.SeverityLow,
}

var (
	sectionRe = regexp.MustCompile(`(?i)^\s*#*\s*\**\s*(critical|major|minor)\b`)
	bulletRe  = regexp.MustCompile(`^\s*[•\-*]\s*(.+)$`)
	contRe    = regexp.MustCompile(`(?i)^\s*(location|recommended action)\s*:\s*(.+)$`)
	anomalyRe = regexp.MustCompile(`(?i)\b(fod|foreign object|debris|defect|anomal)`)
)

// parseRawFindings extracts findings from free-form detector prose. Severity
// section headings (Critical/Major/Minor) scope the bullet lines under them;
// Location and Recommended Action lines extend the preceding finding. When the
// text has no recognizable structure but clearly reports a detection, the whole
// text becomes a single finding.
func parseRawFindings(raw string) []DetectionFinding {
	var findings []DetectionFinding
	var currentSeverity *string

	for _, line := range strings.Split(raw, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			sev := severityAliases[strings.ToLower(m[1])]
			currentSeverity = &sev
			continue
		}
		if m := contRe.FindStringSubmatch(line); m != nil && len(findings) > 0 {
			last := &findings[len(findings)-1]
			extra := m[1] + ": " + strings.TrimSpace(m[2])
			if last.Description != nil {
				joined := *last.Description + "\n" + extra
				last.Description = &joined
			} else {
				last.Description = &extra
			}
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			if len(text) <= 5 {
				continue
			}
			desc := text
			findings = append(findings, DetectionFinding{
				Label:       findingLabel(text),
				Description: &desc,
				Severity:    copySeverity(currentSeverity),
			})
		}
	}

	if len(findings) == 0 && anomalyRe.MatchString(raw) {
		desc := strings.TrimSpace(raw)
		findings = append(findings, DetectionFinding{
			Label:       "Possible foreign object debris",
			Description: &desc,
		})
	}
	return findings
}

func findingLabel(text string) string {
	if idx := strings.IndexAny(text, ".;"); idx > 0 && idx < 120 {
		return strings.TrimSpace(text[:idx])
	}
	if len(text) > 120 {
		return strings.TrimSpace(text[:120])
	}
	return text
}

func copySeverity(severity *string) *string {
	if severity == nil {
		return nil
	}
	s := *severity
	return &s
}
