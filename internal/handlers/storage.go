package handlers

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inspectra/inspectra/internal/middleware"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/response"
)

// 25 MB cap on uploaded files.
const maxUploadBytes = 25 << 20

type StorageHandler struct {
	storageService *services.StorageService
}

func NewStorageHandler(storageService *services.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

func readUpload(c *gin.Context) (filename, contentType string, data []byte, ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing 'file' form field")
		return "", "", nil, false
	}
	if fileHeader.Size > maxUploadBytes {
		response.BadRequest(c, "file too large")
		return "", "", nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return "", "", nil, false
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		response.Error(c, err)
		return "", "", nil, false
	}

	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, true
}

// UploadImage stores an inspection image and creates its submission
// POST /api/projects/:projectID/images (multipart)
func (h *StorageHandler) UploadImage(c *gin.Context) {
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

	filename, contentType, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.storageService.UploadImage(c.Request.Context(), projectID, *actor, filename, contentType, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UploadDesign stores a design-reference document
// POST /api/projects/:projectID/designs (multipart)
func (h *StorageHandler) UploadDesign(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	filename, contentType, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.storageService.UploadDesign(c.Request.Context(), projectID, filename, contentType, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Presign returns a time-limited download URL for a stored object
// GET /api/projects/:projectID/files/presign?key=&expires=&download=
func (h *StorageHandler) Presign(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "missing 'key' query parameter")
		return
	}
	// Keys are project-scoped; a key outside the project prefix is not
	// presignable through this endpoint.
	prefix := projectID.String() + "/"
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		response.Forbidden(c, "object key does not belong to this project")
		return
	}

	expires := 0
	if raw := c.Query("expires"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			response.BadRequest(c, "invalid 'expires' query parameter")
			return
		}
		expires = v
	}
	download := c.Query("download") == "true"

	presigned, err := h.storageService.Presign(c.Request.Context(), key, expires, download)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, presigned)
}
