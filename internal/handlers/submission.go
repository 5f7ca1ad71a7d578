package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/middleware"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
	detectionService  *services.DetectionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService, detectionService *services.DetectionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		detectionService:  detectionService,
	}
}

type createSubmissionRequest struct {
	ImageID string `json:"image_id" binding:"required"`
}

// Create creates a submission for an already-stored image and triggers
// detection
// POST /api/projects/:projectID/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	actor := middleware.ActorID(c)
	if actor == nil {
		response.BadRequest(c, "X-User-ID header required")
		return
	}

	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submission, err := h.submissionService.Create(projectID, *actor, req.ImageID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.detectionService.Trigger(submission.ID, projectID, req.ImageID)
	response.Created(c, submission)
}

// List returns a project's submissions, newest first
// GET /api/projects/:projectID/submissions?status=&pass_fail=
func (h *SubmissionHandler) List(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submissions, err := h.submissionService.List(projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submissions)
}

// Get returns one submission scoped to its project
// GET /api/projects/:projectID/submissions/:submissionID
func (h *SubmissionHandler) Get(c *gin.Context) {
	projectID, submissionID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.Get(projectID, submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submission)
}

// Update applies a partial update to a submission
// PATCH /api/projects/:projectID/submissions/:submissionID
func (h *SubmissionHandler) Update(c *gin.Context) {
	projectID, submissionID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req services.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submission, err := h.submissionService.Update(projectID, submissionID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submission)
}

// Retry resets a failed or complete_with_errors submission and re-triggers
// detection
// POST /api/projects/:projectID/submissions/:submissionID/retry
func (h *SubmissionHandler) Retry(c *gin.Context) {
	projectID, submissionID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.Retry(projectID, submissionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.detectionService.Trigger(submission.ID, projectID, submission.ImageID)
	response.Success(c, submission)
}

// Delete removes a submission and its anomalies
// DELETE /api/projects/:projectID/submissions/:submissionID
func (h *SubmissionHandler) Delete(c *gin.Context) {
	projectID, submissionID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	if err := h.submissionService.Delete(projectID, submissionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SubmissionHandler) parseIDs(c *gin.Context) (projectID, submissionID uuid.UUID, ok bool) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return projectID, submissionID, false
	}
	submissionID, err = uuid.Parse(c.Param("submissionID"))
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return projectID, submissionID, false
	}
	return projectID, submissionID, true
}
