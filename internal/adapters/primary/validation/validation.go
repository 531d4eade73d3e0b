package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

// maxBodyBytes caps request bodies; the API only accepts small JSON documents.
const maxBodyBytes = 1 << 16

// Validatable is implemented by request bodies that check their own fields.
type Validatable interface {
	Validate() error
}

// Validator accumulates field errors. Every rule returns the validator so
// rules can be chained.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{errors: apperrors.NewValidationErrors()}
}

// Check records message against field unless ok.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.errors.Add(field, message)
	}
	return v
}

// Required rejects blank strings.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "This field is required")
}

// MaxLength limits value to max bytes.
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	return v.Check(len(value) <= max, field, fmt.Sprintf("Must be at most %d characters", max))
}

// Between requires min <= value <= max.
func (v *Validator) Between(field string, value, min, max int) *Validator {
	return v.Check(value >= min && value <= max, field, fmt.Sprintf("Must be between %d and %d", min, max))
}

// QueryInt reads an optional integer query parameter. A missing parameter
// yields def; a malformed one is recorded and also yields def.
func (v *Validator) QueryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		v.errors.Add(key, "Must be an integer")
		return def
	}
	return value
}

// Err returns the collected errors, or nil when every rule passed.
func (v *Validator) Err() error {
	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// QueryString returns a trimmed query parameter; ok is false when it is
// missing or blank.
func QueryString(r *http.Request, key string) (value string, ok bool) {
	value = strings.TrimSpace(r.URL.Query().Get(key))
	return value, value != ""
}

// DecodeAndValidate decodes a JSON request body, rejecting unknown fields
// and trailing data, then runs the body's own Validate when it has one.
func DecodeAndValidate[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var req T

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}
	if decoder.More() {
		return nil, apperrors.NewBadRequestError(errors.New("trailing data after JSON body"), "Invalid request body")
	}

	if validatable, ok := any(&req).(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}
