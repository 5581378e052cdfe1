package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestValidate_CommonPassword(t *testing.T) {
	v := NewValidator()

	result := v.Validate("password123", nil, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Password is too common, please choose a more unique password")
}

func TestValidate_AllClassesPresent(t *testing.T) {
	v := NewValidator()

	result := v.Validate("Ab1!Ab1!Ab1!", nil, nil)

	for _, e := range result.Errors {
		assert.NotContains(t, e, "uppercase")
		assert.NotContains(t, e, "lowercase")
		assert.NotContains(t, e, "number")
		assert.NotContains(t, e, "special")
	}
}

func TestValidate_MissingClasses(t *testing.T) {
	v := NewValidator()

	result := v.Validate("tr0ub4dor&horse", nil, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Password must contain at least one uppercase letter")
}

func TestValidate_TooShort(t *testing.T) {
	v := NewValidator()

	result := v.Validate("Ab1!", nil, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Password must be at least 8 characters long")
}

func TestValidate_MultibyteLengthCountsRunes(t *testing.T) {
	v := NewValidator()

	// Four runes, eight bytes. Byte counting would wrongly satisfy the
	// minimum length of eight.
	result := v.Validate("ÑñØé", nil, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Password must be at least 8 characters long")
}

func TestValidate_TooLong(t *testing.T) {
	v := NewValidator()

	result := v.Validate("Ab1!"+strings.Repeat("xY9@", 40), nil, nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Password must be no more than 128 characters long")
}

func TestValidate_RepeatingRun(t *testing.T) {
	v := NewValidator()

	result := v.Validate("Gxaaaa7!Qm", nil, nil)

	assert.Contains(t, result.Errors, "Password must not contain more than 3 repeating characters")
}

func TestValidate_SequentialCharacters(t *testing.T) {
	v := NewValidator()

	for _, password := range []string{
		"Xp7!abcWq9",  // alphabet run
		"Xp7!123Wq$m", // digit run
		"Xp7!qweRb$m", // keyboard row
		"Xp7!cbaWq$m", // reversed run
	} {
		result := v.Validate(password, nil, nil)
		assert.Contains(t, result.Errors, "Password must not contain sequential characters", "password %q", password)
	}
}

func TestValidate_PersonalInfo(t *testing.T) {
	v := NewValidator()

	result := v.Validate("Jordan9!vXm", nil, []string{"Jordan", "jordan@example.com"})
	assert.Contains(t, result.Errors, "Password must not contain personal information")

	// Tokens shorter than three characters are ignored.
	result = v.Validate("Km9!vXwQz", nil, []string{"Km"})
	assert.NotContains(t, result.Errors, "Password must not contain personal information")
}

func TestValidate_Overrides(t *testing.T) {
	v := NewValidator()
	minLen := 12
	noSpecial := false
	overrides := &PolicyOverrides{
		MinLength:           &minLen,
		RequireSpecialChars: &noSpecial,
	}

	result := v.Validate("Short9xYwz", overrides, nil)

	assert.Contains(t, result.Errors, "Password must be at least 12 characters long")
	assert.NotContains(t, result.Errors, "Password must contain at least one special character")
}

func TestValidate_EmptyPassword(t *testing.T) {
	v := NewValidator()

	result := v.Validate("", nil, nil)

	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
	assert.Equal(t, StrengthWeak, result.Strength)
}

func TestValidate_StrongPassword(t *testing.T) {
	v := NewValidator()

	result := v.Validate("K7#mQp!wX2vZ", nil, nil)

	require.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.GreaterOrEqual(t, result.Score, 50)
	assert.Equal(t, StrengthVeryStrong, result.Strength)
}

func TestValidate_Idempotent(t *testing.T) {
	v := NewValidator()

	first := v.Validate("Ab1!Ab1!Ab1!", nil, []string{"someone"})
	second := v.Validate("Ab1!Ab1!Ab1!", nil, []string{"someone"})

	assert.Equal(t, first, second)
}

func TestValidate_Invariants(t *testing.T) {
	v := NewValidator()

	rapid.Check(t, func(rt *rapid.T) {
		password := rapid.String().Draw(rt, "password")
		info := rapid.SliceOfN(rapid.String(), 0, 3).Draw(rt, "personal_info")

		result := v.Validate(password, nil, info)

		if result.Score < 0 || result.Score > 100 {
			rt.Fatalf("score %d outside [0,100]", result.Score)
		}
		if result.IsValid && (len(result.Errors) != 0 || result.Score < 50) {
			rt.Fatalf("IsValid with errors=%v score=%d", result.Errors, result.Score)
		}
	})
}

func TestBandScore(t *testing.T) {
	assert.Equal(t, StrengthWeak, bandScore(0))
	assert.Equal(t, StrengthWeak, bandScore(29))
	assert.Equal(t, StrengthMedium, bandScore(30))
	assert.Equal(t, StrengthMedium, bandScore(59))
	assert.Equal(t, StrengthStrong, bandScore(60))
	assert.Equal(t, StrengthStrong, bandScore(79))
	assert.Equal(t, StrengthVeryStrong, bandScore(80))
	assert.Equal(t, StrengthVeryStrong, bandScore(100))
}
