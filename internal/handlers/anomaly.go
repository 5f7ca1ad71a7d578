package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

type AnomalyHandler struct {
	anomalyService *services.AnomalyService
}

func NewAnomalyHandler(anomalyService *services.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{anomalyService: anomalyService}
}

// Create adds a manual anomaly to a submission's ledger
// POST /api/submissions/:submissionID/anomalies
func (h *AnomalyHandler) Create(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("submissionID"))
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}

	var req services.CreateAnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	anomaly, err := h.anomalyService.Create(submissionID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, anomaly)
}

// List returns a submission's anomalies in insertion order
// GET /api/submissions/:submissionID/anomalies?severity=
func (h *AnomalyHandler) List(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("submissionID"))
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}

	anomalies, err := h.anomalyService.List(submissionID, c.Query("severity"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, anomalies)
}

// Get returns one anomaly
// GET /api/anomalies/:anomalyID
func (h *AnomalyHandler) Get(c *gin.Context) {
	anomalyID, err := uuid.Parse(c.Param("anomalyID"))
	if err != nil {
		response.BadRequest(c, "invalid anomaly id")
		return
	}

	anomaly, err := h.anomalyService.Get(anomalyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, anomaly)
}

// Update applies a partial update to an anomaly
// PATCH /api/anomalies/:anomalyID
func (h *AnomalyHandler) Update(c *gin.Context) {
	anomalyID, err := uuid.Parse(c.Param("anomalyID"))
	if err != nil {
		response.BadRequest(c, "invalid anomaly id")
		return
	}

	var req services.UpdateAnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	anomaly, err := h.anomalyService.Update(anomalyID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, anomaly)
}

// Delete removes an anomaly
// DELETE /api/anomalies/:anomalyID
func (h *AnomalyHandler) Delete(c *gin.Context) {
	anomalyID, err := uuid.Parse(c.Param("anomalyID"))
	if err != nil {
		response.BadRequest(c, "invalid anomaly id")
		return
	}

	if err := h.anomalyService.Delete(anomalyID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
