package security

// PasswordPolicy defines the rules a password must satisfy. A policy is
// immutable for the duration of a validation call.
type PasswordPolicy struct {
	MinLength             int
	MaxLength             int
	RequireUppercase      bool
	RequireLowercase      bool
	RequireNumbers        bool
	RequireSpecialChars   bool
	ForbidCommonPasswords bool
	ForbidPersonalInfo    bool
	MaxRepeatingChars     int
}

// DefaultPolicy returns the policy applied when callers pass no overrides.
func DefaultPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:             8,
		MaxLength:             128,
		RequireUppercase:      true,
		RequireLowercase:      true,
		RequireNumbers:        true,
		RequireSpecialChars:   true,
		ForbidCommonPasswords: true,
		ForbidPersonalInfo:    true,
		MaxRepeatingChars:     3,
	}
}

// PolicyOverrides is a partial policy. Nil fields keep the default;
// set fields replace it.
type PolicyOverrides struct {
	MinLength             *int
	MaxLength             *int
	RequireUppercase      *bool
	RequireLowercase      *bool
	RequireNumbers        *bool
	RequireSpecialChars   *bool
	ForbidCommonPasswords *bool
	ForbidPersonalInfo    *bool
	MaxRepeatingChars     *int
}

func (p PasswordPolicy) merge(o *PolicyOverrides) PasswordPolicy {
	if o == nil {
		return p
	}
	if o.MinLength != nil {
		p.MinLength = *o.MinLength
	}
	if o.MaxLength != nil {
		p.MaxLength = *o.MaxLength
	}
	if o.RequireUppercase != nil {
		p.RequireUppercase = *o.RequireUppercase
	}
	if o.RequireLowercase != nil {
		p.RequireLowercase = *o.RequireLowercase
	}
	if o.RequireNumbers != nil {
		p.RequireNumbers = *o.RequireNumbers
	}
	if o.RequireSpecialChars != nil {
		p.RequireSpecialChars = *o.RequireSpecialChars
	}
	if o.ForbidCommonPasswords != nil {
		p.ForbidCommonPasswords = *o.ForbidCommonPasswords
	}
	if o.ForbidPersonalInfo != nil {
		p.ForbidPersonalInfo = *o.ForbidPersonalInfo
	}
	if o.MaxRepeatingChars != nil {
		p.MaxRepeatingChars = *o.MaxRepeatingChars
	}
	return p
}

// Strength bands a password score into a coarse rating.
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthMedium     Strength = "medium"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// ValidationResult is the structured outcome of a password validation.
// It is derived data and never persisted.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Strength Strength `json:"strength"`
	Score    int      `json:"score"`
}

// ChangeResult is the outcome of a password-change validation.
type ChangeResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}
