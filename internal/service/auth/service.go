package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edforge/lms-api/internal/email"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/internal/repository"
	"github.com/edforge/lms-api/pkg/auth"
	"github.com/edforge/lms-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked, please try again later")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// WeakPasswordError carries the full validation result so callers can
// render every violated rule, not just the first one.
type WeakPasswordError struct {
	Result security.ValidationResult
}

func (e *WeakPasswordError) Error() string {
	if len(e.Result.Errors) == 0 {
		return "password rejected: too weak"
	}
	return "password rejected: " + strings.Join(e.Result.Errors, "; ")
}

const (
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 48 * time.Hour
	maxLoginAttempts  = 5
	lockoutDuration   = 15 * time.Minute
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	emailSvc  email.Service
	validator *security.Validator
	hasher    security.PasswordHasher
	maxAge    int
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	validator *security.Validator,
	hasher security.PasswordHasher,
	passwordMaxAgeDays int,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		emailSvc:  emailSvc,
		validator: validator,
		hasher:    hasher,
		maxAge:    passwordMaxAgeDays,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, ErrEmailTaken
	}

	result := s.validator.Validate(req.Password, nil, []string{req.Email, req.Name})
	if !result.IsValid {
		return nil, &WeakPasswordError{Result: result}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.UserRoleStudent
	}

	now := time.Now()
	user := &model.User{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:                req.Email,
		Name:                 req.Name,
		PasswordHash:         hash,
		Role:                 role,
		Status:               model.UserStatusPending,
		LastPasswordChangeAt: &now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenPurposeVerify, verifyTokenExpiry)
	if err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendVerification(ctx, user.Email, token); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("failed to send verification email")
	}

	return user, nil
}

// Login authenticates a user. Five consecutive failures lock the
// account; the lock expires on its own after lockoutDuration.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, ErrAccountLocked
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if updateErr := s.userRepo.Update(ctx, user); updateErr != nil {
			return nil, fmt.Errorf("update login attempts: %w", updateErr)
		}
		return nil, ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update login timestamp: %w", err)
	}

	return s.generateTokens(user)
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user.Status == model.UserStatusLocked || user.Status == model.UserStatusInactive {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(user)
}

// ChangePassword validates and applies a password change. A failed
// validation is returned in the result, not as an error.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) (*security.ChangeResult, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	result := s.validator.ValidatePasswordChange(
		s.hasher,
		req.CurrentPassword,
		req.NewPassword,
		req.ConfirmPassword,
		user.PasswordHash,
		[]string{user.Email, user.Name},
	)
	if !result.IsValid {
		return &result, nil
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	return &result, nil
}

// PasswordExpired reports whether the user must rotate their password.
func (s *Service) PasswordExpired(user *model.User) bool {
	if user.LastPasswordChangeAt == nil {
		return true
	}
	return security.ShouldUpdatePassword(*user.LastPasswordChangeAt, s.maxAge)
}

// CheckPasswordStrength scores a candidate password without persisting
// anything. Used by signup forms for live feedback.
func (s *Service) CheckPasswordStrength(password string, personalInfo []string) security.ValidationResult {
	return s.validator.Validate(password, nil, personalInfo)
}

// GeneratePassword returns a random password that satisfies the policy.
func (s *Service) GeneratePassword() (string, error) {
	return security.GenerateSecurePassword(security.DefaultGeneratedLength)
}

// ForgotPassword starts a reset flow. Unknown emails succeed silently so
// the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenPurposeReset, resetTokenExpiry)
	if err != nil {
		return err
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("password confirmation does not match")
	}

	stored, err := s.tokenRepo.GetByToken(ctx, req.Token)
	if err != nil || stored.Purpose != model.TokenPurposeReset {
		return ErrInvalidToken
	}
	if stored.UsedAt != nil || time.Now().After(stored.ExpiresAt) {
		return ErrInvalidToken
	}

	user, err := s.userRepo.Get(ctx, stored.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	result := s.validator.Validate(req.NewPassword, nil, []string{user.Email, user.Name})
	if !result.IsValid {
		return &WeakPasswordError{Result: result}
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.tokenRepo.MarkUsed(ctx, stored.ID)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	stored, err := s.tokenRepo.GetByToken(ctx, token)
	if err != nil || stored.Purpose != model.TokenPurposeVerify {
		return ErrInvalidToken
	}
	if stored.UsedAt != nil || time.Now().After(stored.ExpiresAt) {
		return ErrInvalidToken
	}

	user, err := s.userRepo.Get(ctx, stored.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	user.EmailVerified = true
	if user.Status == model.UserStatusPending {
		user.Status = model.UserStatusActive
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.tokenRepo.MarkUsed(ctx, stored.ID); err != nil {
		return err
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}
	return nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	access, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) issueToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	record := &model.ResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store %s token: %w", purpose, err)
	}
	return token, nil
}
