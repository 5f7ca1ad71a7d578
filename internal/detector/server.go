package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inspectra/inspectra/pkg/logger"
	"github.com/inspectra/inspectra/pkg/response"
)

// Config holds the detector sidecar's runtime settings. CallbackURL is the
// backend's webhook endpoint; WebhookSecret is echoed back on every delivery.
type Config struct {
	VLM           VLMConfig
	CallbackURL   string
	WebhookSecret string
}

// Server accepts analyze requests, runs them through the VLM and delivers
// results back to the backend webhook.
type Server struct {
	vlm    *VLM
	cfg    Config
	client *http.Client
}

func NewServer(cfg Config) *Server {
	return &Server{
		vlm:    NewVLM(cfg.VLM),
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// Routes mounts the detector's endpoints on a gin engine.
func (s *Server) Routes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.POST("/analyze", s.analyze)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "inspectra-detector",
		"provider": s.cfg.VLM.Provider,
	})
}

type analyzeRequest struct {
	SubmissionID uuid.UUID `json:"submission_id" binding:"required"`
	ImageURL     string    `json:"image_url" binding:"required"`
	DesignURLs   []string  `json:"design_urls"`
}

// resultPayload mirrors the backend's webhook body.
type resultPayload struct {
	SubmissionID    uuid.UUID `json:"submission_id"`
	Model           *string   `json:"model,omitempty"`
	InferenceTimeMs *float64  `json:"inference_time_ms,omitempty"`
	RawText         *string   `json:"raw_text,omitempty"`
	Error           *string   `json:"error,omitempty"`
}

// analyze accepts a job and returns 202 immediately; the analysis and the
// callback happen in the background.
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	go s.process(&req)
	c.JSON(http.StatusAccepted, gin.H{"submission_id": req.SubmissionID, "status": "accepted"})
}

func (s *Server) process(req *analyzeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	payload := resultPayload{SubmissionID: req.SubmissionID}

	image, mimeType, err := s.fetchImage(ctx, req.ImageURL)
	if err != nil {
		msg := "failed to fetch image: " + err.Error()
		payload.Error = &msg
		s.deliver(&payload)
		return
	}

	start := time.Now()
	raw, err := s.vlm.Analyze(ctx, image, mimeType)
	if err != nil {
		msg := err.Error()
		payload.Error = &msg
		s.deliver(&payload)
		return
	}

	elapsed := float64(time.Since(start).Milliseconds())
	payload.InferenceTimeMs = &elapsed
	if s.cfg.VLM.Model != "" {
		model := s.cfg.VLM.Model
		payload.Model = &model
	}
	payload.RawText = &raw
	s.deliver(&payload)
}

func (s *Server) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}

// deliver posts the result to the backend webhook. Delivery is retried a few
// times; after that the submission stays running until someone retries it.
func (s *Server) deliver(payload *resultPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal result payload")
		return
	}

	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, s.cfg.CallbackURL, bytes.NewReader(body))
		if err != nil {
			logger.Error().Err(err).Msg("failed to build callback request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webhook-Secret", s.cfg.WebhookSecret)

		resp, err := s.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode < 300 {
				logger.Info().Str("submission_id", payload.SubmissionID.String()).
					Msg("detection result delivered")
				return
			}
			logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).
				Msg("callback rejected")
		} else {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("callback failed")
		}
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	logger.Error().Str("submission_id", payload.SubmissionID.String()).
		Msg("giving up on result delivery")
}
