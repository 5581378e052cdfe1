package quiz

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/handler"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/service/quiz"
	"github.com/edforge/lms-api/pkg/httputil"
)

type Handler struct {
	svc *quiz.Service
}

func NewHandler(svc *quiz.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(read, write *gin.RouterGroup) {
	read.GET("/subchapters/:id/quizzes", h.ListQuizzes)
	read.GET("/quizzes/:id", h.GetQuiz)
	read.POST("/quizzes/:id/attempts", h.SubmitAttempt)
	read.GET("/quizzes/:id/attempts", h.ListAttempts)

	write.POST("/quizzes", h.CreateQuiz)
	write.POST("/quizzes/:id/questions", h.AddQuestions)
	write.DELETE("/quizzes/:id", h.DeleteQuiz)
}

func (h *Handler) AddQuestions(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	var req model.AddQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.svc.AddQuestions(c.Request.Context(), quizID, req.Questions)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.svc.CreateQuiz(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	q, err := h.svc.GetQuiz(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, q)
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	subchapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	quizzes, err := h.svc.ListQuizzes(c.Request.Context(), subchapterID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, quizzes)
}

func (h *Handler) DeleteQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	if err := h.svc.DeleteQuiz(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SubmitAttempt(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	var req model.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	// The path is authoritative for the quiz being attempted.
	req.QuizID = c.Param("id")

	attempt, err := h.svc.SubmitAttempt(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, attempt)
}

func (h *Handler) ListAttempts(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return
	}

	attempts, err := h.svc.ListAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, attempts)
}
