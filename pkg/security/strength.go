package security

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// specialChars is the fixed set that counts toward the special-character class.
const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// sequences checked for 3-character ascending or descending runs.
var sequences = []string{
	"0123456789",
	"abcdefghijklmnopqrstuvwxyz",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// commonPasswords is the denylist of known weak passwords, loaded once and
// never mutated at runtime. Matching is case-insensitive.
var commonPasswords = func() map[string]struct{} {
	list := []string{
		"password", "123456", "123456789", "qwerty", "abc123",
		"password123", "admin", "letmein", "welcome", "monkey",
		"dragon", "111111", "iloveyou", "sunshine", "princess",
		"football", "charlie", "aa123456", "qwerty123", "password1",
	}
	m := make(map[string]struct{}, len(list))
	for _, p := range list {
		m[p] = struct{}{}
	}
	return m
}()

// Validator scores passwords against a default policy, with per-call
// overrides merged on top.
type Validator struct {
	defaults PasswordPolicy
}

// NewValidator returns a Validator using DefaultPolicy as its baseline.
func NewValidator() *Validator {
	return &Validator{defaults: DefaultPolicy()}
}

// NewValidatorWithPolicy returns a Validator with a custom baseline policy.
func NewValidatorWithPolicy(policy PasswordPolicy) *Validator {
	return &Validator{defaults: policy}
}

// Validate scores the password against the merged policy. personalInfo
// tokens of three or more characters are forbidden as case-insensitive
// substrings. The result is a pure function of the inputs.
//
// Scoring is additive and subtractive, not pass/fail: a password can
// collect rule violations and still band as medium or strong. IsValid
// requires both an empty error list and a score of at least 50.
func (v *Validator) Validate(password string, overrides *PolicyOverrides, personalInfo []string) ValidationResult {
	policy := v.defaults.merge(overrides)

	var errs []string
	score := 0

	// Length: up to 25 points, proportional below the minimum. Counted
	// in runes so multibyte characters weigh the same as ASCII, and so
	// the diversity denominator below uses the same unit.
	length := utf8.RuneCountInString(password)
	if length < policy.MinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", policy.MinLength))
	}
	if policy.MaxLength > 0 && length > policy.MaxLength {
		errs = append(errs, fmt.Sprintf("Password must be no more than %d characters long", policy.MaxLength))
	}
	ratio := 1.0
	if policy.MinLength > 0 {
		ratio = float64(length) / float64(policy.MinLength)
		if ratio > 1 {
			ratio = 1
		}
	}
	score += int(25 * ratio)

	// Character classes: 15/15/15/20 for upper/lower/digit/special.
	hasUpper := strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	hasLower := strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz")
	hasDigit := strings.ContainsAny(password, "0123456789")
	hasSpecial := strings.ContainsAny(password, specialChars)

	if policy.RequireUppercase {
		if hasUpper {
			score += 15
		} else {
			errs = append(errs, "Password must contain at least one uppercase letter")
		}
	}
	if policy.RequireLowercase {
		if hasLower {
			score += 15
		} else {
			errs = append(errs, "Password must contain at least one lowercase letter")
		}
	}
	if policy.RequireNumbers {
		if hasDigit {
			score += 15
		} else {
			errs = append(errs, "Password must contain at least one number")
		}
	}
	if policy.RequireSpecialChars {
		if hasSpecial {
			score += 20
		} else {
			errs = append(errs, "Password must contain at least one special character")
		}
	}

	lower := strings.ToLower(password)

	if policy.ForbidCommonPasswords {
		if _, ok := commonPasswords[lower]; ok {
			score -= 30
			errs = append(errs, "Password is too common, please choose a more unique password")
		}
	}

	if policy.ForbidPersonalInfo {
		for _, info := range personalInfo {
			if len(info) < 3 {
				continue
			}
			if strings.Contains(lower, strings.ToLower(info)) {
				score -= 20
				errs = append(errs, "Password must not contain personal information")
				break
			}
		}
	}

	if policy.MaxRepeatingChars > 0 && hasRepeatingRun(password, policy.MaxRepeatingChars) {
		score -= 15
		errs = append(errs, fmt.Sprintf("Password must not contain more than %d repeating characters", policy.MaxRepeatingChars))
	}

	if hasSequentialRun(lower) {
		score -= 10
		errs = append(errs, "Password must not contain sequential characters")
	}

	// Diversity bonus: up to 10 points for unique characters.
	if length > 0 {
		unique := make(map[rune]struct{}, length)
		for _, r := range password {
			unique[r] = struct{}{}
		}
		bonus := float64(len(unique)) / float64(length) * 10
		if bonus > 10 {
			bonus = 10
		}
		score += int(bonus)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return ValidationResult{
		IsValid:  len(errs) == 0 && score >= 50,
		Errors:   errs,
		Strength: bandScore(score),
		Score:    score,
	}
}

func bandScore(score int) Strength {
	switch {
	case score < 30:
		return StrengthWeak
	case score < 60:
		return StrengthMedium
	case score < 80:
		return StrengthStrong
	default:
		return StrengthVeryStrong
	}
}

// hasRepeatingRun reports whether any run of identical consecutive
// characters is longer than max. Detection stops at the first violation.
func hasRepeatingRun(s string, max int) bool {
	run := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > max {
			return true
		}
		prev = r
	}
	return false
}

// hasSequentialRun reports whether the case-folded password contains any
// 3-character window of a base sequence, forward or reversed.
func hasSequentialRun(lower string) bool {
	for _, seq := range sequences {
		for i := 0; i+3 <= len(seq); i++ {
			window := seq[i : i+3]
			if strings.Contains(lower, window) || strings.Contains(lower, reverse(window)) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
