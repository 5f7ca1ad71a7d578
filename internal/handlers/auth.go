package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login validates credentials
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, response.ErrorBody{Detail: resp.Message})
		return
	}

	response.Success(c, resp)
}
