package upload

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/handler"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/repository"
	"github.com/edforge/lms-api/pkg/httputil"
)

const maxUploadSize = 10 << 20

var allowedTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"application/pdf": true,
	"video/mp4":       true,
}

type Handler struct {
	repo       repository.UploadRepository
	storageDir string
}

func NewHandler(repo repository.UploadRepository, storageDir string) *Handler {
	return &Handler{repo: repo, storageDir: storageDir}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/uploads", h.Upload)
	r.GET("/uploads/:id", h.Get)
	r.GET("/uploads", h.List)
}

func (h *Handler) Upload(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("file is required"))
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, handler.NewErrorResponse(
			fmt.Sprintf("file exceeds %d bytes", maxUploadSize)))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, handler.NewErrorResponse("unsupported file type"))
		return
	}

	id := uuid.New()
	storagePath := filepath.Join(h.storageDir, id.String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, storagePath); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to store file"))
		return
	}

	now := time.Now()
	upload := &model.Upload{
		Base: model.Base{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:      userID,
		FileName:    file.Filename,
		ContentType: contentType,
		SizeBytes:   file.Size,
		StoragePath: storagePath,
	}
	if err := h.repo.Create(c.Request.Context(), upload); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, upload)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	upload, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("upload not found"))
		return
	}

	c.FileAttachment(upload.StoragePath, upload.FileName)
}

func (h *Handler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	uploads, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, uploads)
}
