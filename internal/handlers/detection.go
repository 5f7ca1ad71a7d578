package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

// WebhookSecretHeader carries the shared secret on detector result deliveries.
const WebhookSecretHeader = "X-Webhook-Secret"

type DetectionHandler struct {
	detectionService *services.DetectionService
}

func NewDetectionHandler(detectionService *services.DetectionService) *DetectionHandler {
	return &DetectionHandler{detectionService: detectionService}
}

// Webhook receives a detection result from the detector
// POST /api/detection/webhook
func (h *DetectionHandler) Webhook(c *gin.Context) {
	var payload services.DetectionResultPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	submission, err := h.detectionService.HandleResult(&payload, c.GetHeader(WebhookSecretHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, submission)
}
