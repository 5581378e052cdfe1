package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/handler"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/service/auth"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the public auth endpoints. protected carries the
// routes that need a valid access token; resetLimit is the stricter
// policy for the reset flow.
func (h *Handler) RegisterRoutes(r, protected *gin.RouterGroup, resetLimit gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.POST("/forgot-password", resetLimit, h.ForgotPassword)
		authGroup.POST("/reset-password", resetLimit, h.ResetPassword)
		authGroup.POST("/verify-email", h.VerifyEmail)
		authGroup.POST("/password-strength", h.PasswordStrength)
		authGroup.GET("/generate-password", h.GeneratePassword)
	}

	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.POST("/change-password", h.ChangePassword)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		if err == auth.ErrEmailTaken {
			c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
			return
		}
		var weak *auth.WeakPasswordError
		if errors.As(err, &weak) {
			// The full result goes back so the client can show every
			// violated rule, not just the first.
			c.JSON(http.StatusUnprocessableEntity, &handler.Response{
				Status:  "error",
				Message: "password does not meet the policy",
				Data:    weak.Result,
			})
			return
		}
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == auth.ErrAccountLocked {
			c.JSON(http.StatusLocked, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid credentials"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid refresh token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.svc.ChangePassword(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to change password"))
		return
	}
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, handler.NewSuccessResponse(result))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to start password reset"))
		return
	}

	// Same response whether or not the account exists.
	c.JSON(http.StatusOK, handler.NewSuccessResponse("if the account exists, a reset email has been sent"))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), &req); err != nil {
		var weak *auth.WeakPasswordError
		if errors.As(err, &weak) {
			c.JSON(http.StatusUnprocessableEntity, &handler.Response{
				Status:  "error",
				Message: "password does not meet the policy",
				Data:    weak.Result,
			})
			return
		}
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("password has been reset"))
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("verification token is required"))
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("email verified successfully"))
}

// PasswordStrength scores a candidate password for live signup feedback.
func (h *Handler) PasswordStrength(c *gin.Context) {
	var req struct {
		Password     string   `json:"password" binding:"required"`
		PersonalInfo []string `json:"personal_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result := h.svc.CheckPasswordStrength(req.Password, req.PersonalInfo)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GeneratePassword(c *gin.Context) {
	password, err := h.svc.GeneratePassword()
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to generate password"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"password": password}))
}
