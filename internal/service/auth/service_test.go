package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edforge/lms-api/internal/config"
	"github.com/edforge/lms-api/internal/model"
	"github.com/edforge/lms-api/pkg/auth"
	"github.com/edforge/lms-api/pkg/security"
)

type mockUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byEmail: make(map[string]*model.User),
		byID:    make(map[uuid.UUID]*model.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	if u, ok := m.byID[id]; ok {
		u.PasswordHash = hash
		return nil
	}
	return assert.AnError
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error { return nil }

func (m *mockUserRepo) List(_ context.Context, _ *model.UserFilter) ([]*model.User, error) {
	return nil, nil
}

type mockTokenRepo struct {
	tokens map[string]*model.ResetToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.ResetToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, token *model.ResetToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockTokenRepo) GetByToken(_ context.Context, token string) (*model.ResetToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, assert.AnError
}

func (m *mockTokenRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	for _, t := range m.tokens {
		if t.ID == id {
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return assert.AnError
}

func (m *mockTokenRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mockEmailService struct {
	verifications []string
	resets        []string
	welcomes      []string
}

func (m *mockEmailService) SendVerification(_ context.Context, email, _ string) error {
	m.verifications = append(m.verifications, email)
	return nil
}

func (m *mockEmailService) SendPasswordReset(_ context.Context, email, _ string) error {
	m.resets = append(m.resets, email)
	return nil
}

func (m *mockEmailService) SendWelcome(_ context.Context, email, _ string) error {
	m.welcomes = append(m.welcomes, email)
	return nil
}

func (m *mockEmailService) SendCustom(_ context.Context, _, _, _ string) error { return nil }

func newTestService(t *testing.T) (*Service, *mockUserRepo, *mockTokenRepo, *mockEmailService) {
	t.Helper()
	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	emails := &mockEmailService{}
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:             "test-secret",
		RefreshSecret:      "test-refresh-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	})
	svc := NewService(
		users, tokens, jwtSvc, emails,
		security.NewValidator(),
		security.NewBcryptHasher(bcrypt.MinCost, 2),
		90,
	)
	return svc, users, tokens, emails
}

const strongPassword = "K7#mQp!wX2vZ"

func seedUser(t *testing.T, svc *Service, users *mockUserRepo) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "teacher@example.com",
		Name:     "Jordan Reyes",
		Password: strongPassword,
		Role:     model.UserRoleTeacher,
	})
	require.NoError(t, err)
	user.Status = model.UserStatusActive
	require.NoError(t, users.Update(context.Background(), user))
	return user
}

func TestRegister(t *testing.T) {
	svc, _, _, emails := newTestService(t)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "new@example.com",
		Name:     "Sam Okafor",
		Password: strongPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleStudent, user.Role)
	assert.Equal(t, model.UserStatusPending, user.Status)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, strongPassword, user.PasswordHash)
	assert.Equal(t, []string{"new@example.com"}, emails.verifications)

	_, err = svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "new@example.com",
		Name:     "Sam Okafor",
		Password: strongPassword,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	// "pass" violates four rules; all of them must come back, not just
	// the first.
	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "weak@example.com",
		Name:     "Weak",
		Password: "pass",
	})
	require.Error(t, err)

	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Contains(t, weak.Result.Errors, "Password must be at least 8 characters long")
	assert.Contains(t, weak.Result.Errors, "Password must contain at least one uppercase letter")
	assert.Contains(t, weak.Result.Errors, "Password must contain at least one number")
	assert.Contains(t, weak.Result.Errors, "Password must contain at least one special character")
	assert.Contains(t, err.Error(), "password rejected")
}

func TestLogin(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, svc, users)

	tokens, err := svc.Login(context.Background(), "teacher@example.com", strongPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.True(t, tokens.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), "teacher@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", strongPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockout(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	user := seedUser(t, svc, users)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), user.Email, "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Equal(t, model.UserStatusLocked, user.Status)

	// Correct password is refused while the lock is active.
	_, err := svc.Login(context.Background(), user.Email, strongPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)

	// Lock expires after the cooldown.
	user.LastLoginAttempt = time.Now().Add(-lockoutDuration - time.Minute)
	_, err = svc.Login(context.Background(), user.Email, strongPassword)
	require.NoError(t, err)
	assert.Equal(t, 0, user.LoginAttempts)
}

func TestRefreshToken(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	user := seedUser(t, svc, users)

	tokens, err := svc.Login(context.Background(), user.Email, strongPassword)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	user := seedUser(t, svc, users)

	result, err := svc.ChangePassword(context.Background(), user.ID, &model.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "B4$tR9@kL5&nW7",
		ConfirmPassword: "B4$tR9@kL5&nW7",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Current password is incorrect")

	result, err = svc.ChangePassword(context.Background(), user.ID, &model.ChangePasswordRequest{
		CurrentPassword: strongPassword,
		NewPassword:     "B4$tR9@kL5&nW7",
		ConfirmPassword: "B4$tR9@kL5&nW7",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	_, err = svc.Login(context.Background(), user.Email, "B4$tR9@kL5&nW7")
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, users, tokens, emails := newTestService(t)
	user := seedUser(t, svc, users)

	require.NoError(t, svc.ForgotPassword(context.Background(), user.Email))
	require.Equal(t, []string{user.Email}, emails.resets)

	// Unknown emails succeed without sending anything.
	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Len(t, emails.resets, 1)

	var resetToken string
	for tok, rec := range tokens.tokens {
		if rec.Purpose == model.TokenPurposeReset {
			resetToken = tok
		}
	}
	require.NotEmpty(t, resetToken)

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token:           resetToken,
		NewPassword:     "B4$tR9@kL5&nW7",
		ConfirmPassword: "B4$tR9@kL5&nW7",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), user.Email, "B4$tR9@kL5&nW7")
	assert.NoError(t, err)

	// Tokens are single use.
	err = svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token:           resetToken,
		NewPassword:     "C8%uS0!mN6*pQ3",
		ConfirmPassword: "C8%uS0!mN6*pQ3",
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPasswordRejectsWeakPasswordWithAllViolations(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	user := seedUser(t, svc, users)

	require.NoError(t, svc.ForgotPassword(context.Background(), user.Email))
	var resetToken string
	for tok, rec := range tokens.tokens {
		if rec.Purpose == model.TokenPurposeReset {
			resetToken = tok
		}
	}
	require.NotEmpty(t, resetToken)

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token:           resetToken,
		NewPassword:     "pass",
		ConfirmPassword: "pass",
	})
	require.Error(t, err)

	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Len(t, weak.Result.Errors, 4)
	assert.Contains(t, weak.Result.Errors, "Password must be at least 8 characters long")
	assert.Contains(t, weak.Result.Errors, "Password must contain at least one uppercase letter")

	// The rejected reset leaves the token unconsumed.
	rec := tokens.tokens[resetToken]
	assert.Nil(t, rec.UsedAt)
}

func TestVerifyEmail(t *testing.T) {
	svc, _, tokens, emails := newTestService(t)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "pending@example.com",
		Name:     "Pending User",
		Password: strongPassword,
	})
	require.NoError(t, err)
	require.Equal(t, model.UserStatusPending, user.Status)

	var verifyToken string
	for tok, rec := range tokens.tokens {
		if rec.Purpose == model.TokenPurposeVerify {
			verifyToken = tok
		}
	}
	require.NotEmpty(t, verifyToken)

	require.NoError(t, svc.VerifyEmail(context.Background(), verifyToken))
	assert.True(t, user.EmailVerified)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.Equal(t, []string{user.Email}, emails.welcomes)

	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), verifyToken), ErrInvalidToken)
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), "bogus"), ErrInvalidToken)
}

func TestPasswordExpired(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	user := seedUser(t, svc, users)

	assert.False(t, svc.PasswordExpired(user))

	old := time.Now().AddDate(0, 0, -91)
	user.LastPasswordChangeAt = &old
	assert.True(t, svc.PasswordExpired(user))

	user.LastPasswordChangeAt = nil
	assert.True(t, svc.PasswordExpired(user))
}

func TestGeneratePassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	pw, err := svc.GeneratePassword()
	require.NoError(t, err)
	result := svc.CheckPasswordStrength(pw, nil)
	assert.True(t, result.IsValid, "generated password should pass policy: %v", result.Errors)
}
