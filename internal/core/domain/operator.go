package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

// Password validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
	MaxUsernameLength = 64
)

// Operator is the dashboard operator allowed to query and train the engine.
type Operator struct {
	ID             uuid.UUID
	Username       string
	HashedPassword string
}

// NewOperator builds an operator from configured credentials. The hash must
// be a bcrypt hash.
func NewOperator(username, hashedPassword string) (*Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.ErrUsernameRequired
	}
	if len(username) > MaxUsernameLength {
		return nil, apperrors.ErrUsernameTooLong
	}
	if _, err := bcrypt.Cost([]byte(hashedPassword)); err != nil {
		return nil, apperrors.ErrInvalidPasswordHash
	}

	return &Operator{
		// Stable across restarts so issued tokens stay valid.
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("operator:"+username)),
		Username:       username,
		HashedPassword: hashedPassword,
	}, nil
}

// ValidatePassword checks if a password meets security requirements
// Returns a slice of error messages (empty if valid)
func ValidatePassword(password string) []string {
	var errors []string

	if len(password) < MinPasswordLength {
		errors = append(errors, "Password must be at least 8 characters long")
	}

	if len(password) > MaxPasswordLength {
		errors = append(errors, "Password must be 72 characters or less")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		errors = append(errors, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "Password must contain at least one lowercase letter")
	}
	if !hasNumber {
		errors = append(errors, "Password must contain at least one number")
	}

	return errors
}

// CheckPassword verifies if the provided password matches the stored hash
func (o *Operator) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(o.HashedPassword), []byte(password))
	return err == nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if errs := ValidatePassword(password); len(errs) > 0 {
		return "", apperrors.ErrPasswordTooWeak
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
