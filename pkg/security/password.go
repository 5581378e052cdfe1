package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed    = errors.New("password hashing failed")
	ErrGenerationFailed = errors.New("password generation failed")
)

// HashCost is the bcrypt work factor. Deliberately high to resist
// offline brute force; a single hash takes on the order of a second.
const HashCost = 14

// DefaultGeneratedLength is used when GenerateSecurePassword gets a
// non-positive length.
const DefaultGeneratedLength = 16

const (
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	digitChars = "0123456789"
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
	// sem bounds concurrent hashing so the expensive work factor cannot
	// starve request handling.
	sem chan struct{}
}

// NewBcryptHasher creates a password hasher using bcrypt. maxConcurrent
// caps how many hash or compare operations may run at once; zero or
// negative means a sensible default.
func NewBcryptHasher(cost, maxConcurrent int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = HashCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &bcryptHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	b.sem <- struct{}{}
	defer func() { <-b.sem }()

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

// Compare verifies password against hashedPassword using bcrypt's own
// comparison. Never replace this with a manual character compare; bcrypt's
// primitive is what keeps verification timing independent of the input.
func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	b.sem <- struct{}{}
	defer func() { <-b.sem }()

	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateSecurePassword returns a random password of the given length
// containing at least one character from each required class. The source
// is crypto/rand throughout, including the final shuffle.
func GenerateSecurePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultGeneratedLength
	}
	if length < 4 {
		return "", fmt.Errorf("%w: length %d cannot cover all character classes", ErrGenerationFailed, length)
	}

	classes := []string{upperChars, lowerChars, digitChars, specialChars}
	all := upperChars + lowerChars + digitChars + specialChars

	buf := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates so the guaranteed class characters do not sit at
	// predictable positions.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return set[n.Int64()], nil
}

// ValidatePasswordChange checks a change-password request. Both hash
// comparisons run unconditionally before any branching so a failed current
// password does not short-circuit the reuse check and leak timing.
func (v *Validator) ValidatePasswordChange(hasher PasswordHasher, currentPassword, newPassword, confirmPassword, currentHash string, personalInfo []string) ChangeResult {
	currentErr := hasher.Compare(currentHash, currentPassword)
	reuseErr := hasher.Compare(currentHash, newPassword)

	var errs []string
	if currentErr != nil {
		errs = append(errs, "Current password is incorrect")
	}
	if reuseErr == nil {
		errs = append(errs, "New password must be different from current password")
	}
	if newPassword != confirmPassword {
		errs = append(errs, "Password confirmation does not match")
	}

	result := v.Validate(newPassword, nil, personalInfo)
	errs = append(errs, result.Errors...)
	if !result.IsValid && len(result.Errors) == 0 {
		errs = append(errs, "Password is too weak")
	}

	return ChangeResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// ShouldUpdatePassword reports whether the password age strictly exceeds
// maxAgeDays. Non-positive maxAgeDays falls back to 90.
func ShouldUpdatePassword(changedAt time.Time, maxAgeDays int) bool {
	if maxAgeDays <= 0 {
		maxAgeDays = 90
	}
	return time.Since(changedAt) > time.Duration(maxAgeDays)*24*time.Hour
}
