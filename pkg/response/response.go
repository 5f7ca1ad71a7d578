package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified success envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the error payload shape. Clients key off the detail string.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// AppError represents a structured application error with an HTTP status.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 409)
	Detail     string // Human-readable error detail
}

func (e *AppError) Error() string {
	return e.Detail
}

// Pre-defined error constructors

func NewBadRequest(detail string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Detail: detail}
}

func NewForbidden(detail string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Detail: detail}
}

func NewNotFound(detail string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Detail: detail}
}

func NewConflict(detail string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Detail: detail}
}

func NewServerError(detail string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Detail: detail}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response. If err is an *AppError, its status is used;
// otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{Detail: appErr.Detail})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{Detail: err.Error()})
}

// Convenience error response functions

func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Detail: detail})
}

func Forbidden(c *gin.Context, detail string) {
	c.JSON(http.StatusForbidden, ErrorBody{Detail: detail})
}

func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, ErrorBody{Detail: detail})
}

func Conflict(c *gin.Context, detail string) {
	c.JSON(http.StatusConflict, ErrorBody{Detail: detail})
}

func ServerError(c *gin.Context, detail string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Detail: detail})
}
