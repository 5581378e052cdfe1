package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Tests use MinCost; the production cost of 14 would make this suite
// take minutes.
func newTestHasher() PasswordHasher {
	return NewBcryptHasher(bcrypt.MinCost, 2)
}

func TestHashAndCompare(t *testing.T) {
	hasher := newTestHasher()

	hash, err := hasher.Hash("K7#mQp!wX2vZ")
	require.NoError(t, err)
	assert.NotEqual(t, "K7#mQp!wX2vZ", hash)

	assert.NoError(t, hasher.Compare(hash, "K7#mQp!wX2vZ"))
	assert.Error(t, hasher.Compare(hash, "wrong-password"))
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	// An invalid cost must not silently weaken hashing.
	hasher := NewBcryptHasher(99, 2)

	hash, err := hasher.Hash("K7#mQp!wX2vZ")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, HashCost, cost)
}

func TestGenerateSecurePassword(t *testing.T) {
	password, err := GenerateSecurePassword(20)
	require.NoError(t, err)

	assert.Len(t, password, 20)
	assert.True(t, strings.ContainsAny(password, upperChars), "missing uppercase: %q", password)
	assert.True(t, strings.ContainsAny(password, lowerChars), "missing lowercase: %q", password)
	assert.True(t, strings.ContainsAny(password, digitChars), "missing digit: %q", password)
	assert.True(t, strings.ContainsAny(password, specialChars), "missing special: %q", password)

	other, err := GenerateSecurePassword(20)
	require.NoError(t, err)
	assert.NotEqual(t, password, other)
}

func TestGenerateSecurePassword_DefaultLength(t *testing.T) {
	password, err := GenerateSecurePassword(0)
	require.NoError(t, err)
	assert.Len(t, password, DefaultGeneratedLength)
}

func TestGenerateSecurePassword_TooShort(t *testing.T) {
	_, err := GenerateSecurePassword(3)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestValidatePasswordChange(t *testing.T) {
	v := NewValidator()
	hasher := newTestHasher()

	currentHash, err := hasher.Hash("OldK7#mQp!wX")
	require.NoError(t, err)

	t.Run("valid change", func(t *testing.T) {
		result := v.ValidatePasswordChange(hasher, "OldK7#mQp!wX", "NewZ4$rTn!bY", "NewZ4$rTn!bY", currentHash, nil)
		assert.True(t, result.IsValid, "errors: %v", result.Errors)
		assert.Empty(t, result.Errors)
	})

	t.Run("wrong current password", func(t *testing.T) {
		result := v.ValidatePasswordChange(hasher, "not-the-password", "NewZ4$rTn!bY", "NewZ4$rTn!bY", currentHash, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Current password is incorrect")
	})

	t.Run("password reuse", func(t *testing.T) {
		result := v.ValidatePasswordChange(hasher, "OldK7#mQp!wX", "OldK7#mQp!wX", "OldK7#mQp!wX", currentHash, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "New password must be different from current password")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		result := v.ValidatePasswordChange(hasher, "OldK7#mQp!wX", "NewZ4$rTn!bY", "NewZ4$rTn!bZ", currentHash, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Password confirmation does not match")
	})

	t.Run("weak new password collects policy errors", func(t *testing.T) {
		result := v.ValidatePasswordChange(hasher, "OldK7#mQp!wX", "weak", "weak", currentHash, nil)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors, "Password must be at least 8 characters long")
	})
}

func TestShouldUpdatePassword(t *testing.T) {
	assert.True(t, ShouldUpdatePassword(time.Now().AddDate(0, 0, -91), 90))
	assert.False(t, ShouldUpdatePassword(time.Now().AddDate(0, 0, -89), 90))

	// Non-positive max age falls back to 90 days.
	assert.False(t, ShouldUpdatePassword(time.Now().AddDate(0, 0, -30), 0))
	assert.True(t, ShouldUpdatePassword(time.Now().AddDate(0, 0, -120), 0))
}
