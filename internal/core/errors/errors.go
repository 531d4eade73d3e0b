package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Authentication and operator credentials
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUsernameRequired    = errors.New("username is required")
	ErrUsernameTooLong     = errors.New("username exceeds maximum length")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordTooWeak     = errors.New("password does not meet security requirements")
	ErrInvalidPasswordHash = errors.New("password hash is not a valid bcrypt hash")
)

// Engine
var (
	ErrBaselineNotCalculated   = errors.New("baseline not calculated; train first")
	ErrNoTickets               = errors.New("no tickets available for training")
	ErrTicketSourceUnavailable = errors.New("ticket source unavailable")
	ErrInvalidSeverity         = errors.New("invalid anomaly severity")
	ErrInvalidAnomalyType      = errors.New("invalid anomaly type")
)

// AppError carries a client-facing message and status alongside the cause.
type AppError struct {
	Err        error
	Message    string // safe to show to clients
	Code       string // machine-readable
	StatusCode int
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError reports a request the server could not parse.
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: http.StatusBadRequest,
	}
}

// ValidationErrors collects per-field problems with a request.
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make(map[string][]string)}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Fields returns the invalid field names in sorted order.
func (v *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(v.Fields(), ", "))
}
