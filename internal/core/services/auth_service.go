package services

import (
	"context"
	"crypto/subtle"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// AuthService authenticates the configured dashboard operator
type AuthService struct {
	operator *domain.Operator
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(operator *domain.Operator) ports.AuthService {
	return &AuthService{operator: operator}
}

// Login authenticates the operator with username and password
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Operator, error) {
	if username == "" {
		return nil, apperrors.ErrUsernameRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	usernameMatches := subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) == 1
	// Always run the bcrypt comparison so both failure paths cost the same.
	passwordMatches := s.operator.CheckPassword(password)
	if !usernameMatches || !passwordMatches {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.operator, nil
}
