package ai

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/handler"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/service/ai"
	"github.com/edforge/lms-api/pkg/httputil"
)

type Handler struct {
	svc *ai.Service
}

func NewHandler(svc *ai.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/ai/generate", h.Generate)
}

// Generate queues a content-generation job and returns 202 with the job
// ID; the worker does the actual generation.
func (h *Handler) Generate(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	var req ai.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	job, err := h.svc.Enqueue(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{
		"job_id":       job.ID,
		"requested_at": job.RequestedAt,
	}))
}
