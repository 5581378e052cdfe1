package content

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/handler"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/service/content"
	"github.com/edforge/lms-api/pkg/httputil"
)

type Handler struct {
	svc *content.Service
}

func NewHandler(svc *content.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the content hierarchy. Reads are open to any
// authenticated user; writes are restricted by the router via role
// middleware.
func (h *Handler) RegisterRoutes(read, write *gin.RouterGroup) {
	read.GET("/grades", h.ListGrades)
	read.GET("/grades/:id", h.GetGrade)
	read.GET("/grades/:id/subjects", h.ListSubjects)
	read.GET("/subjects/:id", h.GetSubject)
	read.GET("/subjects/:id/chapters", h.ListChapters)
	read.GET("/chapters/:id", h.GetChapter)
	read.GET("/chapters/:id/subchapters", h.ListSubchapters)
	read.GET("/subchapters/:id", h.GetSubchapter)

	write.POST("/grades", h.CreateGrade)
	write.PUT("/grades/:id", h.UpdateGrade)
	write.DELETE("/grades/:id", h.DeleteGrade)
	write.POST("/subjects", h.CreateSubject)
	write.PUT("/subjects/:id", h.UpdateSubject)
	write.DELETE("/subjects/:id", h.DeleteSubject)
	write.POST("/chapters", h.CreateChapter)
	write.PUT("/chapters/:id", h.UpdateChapter)
	write.DELETE("/chapters/:id", h.DeleteChapter)
	write.POST("/subchapters", h.CreateSubchapter)
	write.PUT("/subchapters/:id", h.UpdateSubchapter)
	write.DELETE("/subchapters/:id", h.DeleteSubchapter)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateGrade(c *gin.Context) {
	var req model.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	grade, err := h.svc.CreateGrade(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, grade)
}

func (h *Handler) GetGrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	grade, err := h.svc.GetGrade(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, grade)
}

func (h *Handler) ListGrades(c *gin.Context) {
	grades, err := h.svc.ListGrades(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, grades)
}

func (h *Handler) UpdateGrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	grade, err := h.svc.GetGrade(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	grade.Name = req.Name
	grade.Level = req.Level
	grade.Description = req.Description

	if err := h.svc.UpdateGrade(c.Request.Context(), grade); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, grade)
}

func (h *Handler) DeleteGrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteGrade(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	subject, err := h.svc.CreateSubject(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, subject)
}

func (h *Handler) GetSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subject, err := h.svc.GetSubject(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subject)
}

func (h *Handler) ListSubjects(c *gin.Context) {
	gradeID, ok := pathID(c)
	if !ok {
		return
	}
	subjects, err := h.svc.ListSubjects(c.Request.Context(), gradeID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subjects)
}

func (h *Handler) UpdateSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subject, err := h.svc.GetSubject(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	subject.Name = req.Name
	subject.Description = req.Description
	subject.IconURL = req.IconURL

	if err := h.svc.UpdateSubject(c.Request.Context(), subject); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subject)
}

func (h *Handler) DeleteSubject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSubject(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateChapter(c *gin.Context) {
	var req model.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	chapter, err := h.svc.CreateChapter(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, chapter)
}

func (h *Handler) GetChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	chapter, err := h.svc.GetChapter(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, chapter)
}

func (h *Handler) ListChapters(c *gin.Context) {
	subjectID, ok := pathID(c)
	if !ok {
		return
	}
	chapters, err := h.svc.ListChapters(c.Request.Context(), subjectID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, chapters)
}

func (h *Handler) UpdateChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	chapter, err := h.svc.GetChapter(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Position int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	chapter.Name = req.Name
	chapter.Position = req.Position

	if err := h.svc.UpdateChapter(c.Request.Context(), chapter); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, chapter)
}

func (h *Handler) DeleteChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteChapter(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSubchapter(c *gin.Context) {
	var req model.CreateSubchapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if req.ChapterID == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("chapter_id is required"))
		return
	}

	subchapter, err := h.svc.CreateSubchapter(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, subchapter)
}

func (h *Handler) GetSubchapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subchapter, err := h.svc.GetSubchapter(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subchapter)
}

func (h *Handler) ListSubchapters(c *gin.Context) {
	chapterID, ok := pathID(c)
	if !ok {
		return
	}
	subchapters, err := h.svc.ListSubchapters(c.Request.Context(), chapterID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subchapters)
}

func (h *Handler) UpdateSubchapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subchapter, err := h.svc.GetSubchapter(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Position int    `json:"position"`
		Content  string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	subchapter.Name = req.Name
	subchapter.Position = req.Position
	subchapter.Content = req.Content

	if err := h.svc.UpdateSubchapter(c.Request.Context(), subchapter); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subchapter)
}

func (h *Handler) DeleteSubchapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSubchapter(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
