package validation_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

func TestValidator(t *testing.T) {
	err := validation.NewValidator().
		Required("username", "  ").
		MaxLength("password", strings.Repeat("x", 10), 5).
		Between("limit", 0, 1, 100).
		Between("page", 3, 1, 100).
		Check(false, "limit", "custom").
		Err()

	var fields *apperrors.ValidationErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, []string{"limit", "password", "username"}, fields.Fields())
	assert.Equal(t, []string{"Must be between 1 and 100", "custom"}, fields.Errors["limit"])

	assert.NoError(t, validation.NewValidator().Required("username", "ops").Err())
}

func TestValidator_QueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x", nil)
	v := validation.NewValidator()

	assert.Equal(t, 5, v.QueryInt(req, "limit", 50))
	assert.Equal(t, 50, v.QueryInt(req, "missing", 50))
	require.NoError(t, v.Err())

	assert.Equal(t, 50, v.QueryInt(req, "bad", 50))
	var fields *apperrors.ValidationErrors
	require.ErrorAs(t, v.Err(), &fields)
	assert.Equal(t, []string{"Must be an integer"}, fields.Errors["bad"])
}

func TestQueryString(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?severity=%20high%20&blank=%20", nil)

	severity, ok := validation.QueryString(req, "severity")
	assert.True(t, ok)
	assert.Equal(t, "high", severity)

	_, ok = validation.QueryString(req, "blank")
	assert.False(t, ok)
	_, ok = validation.QueryString(req, "missing")
	assert.False(t, ok)
}

type loginBody struct {
	Username string `json:"username"`
}

func (b *loginBody) Validate() error {
	return validation.NewValidator().Required("username", b.Username).Err()
}

func TestDecodeAndValidate(t *testing.T) {
	decode := func(body string) (*loginBody, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return validation.DecodeAndValidate[loginBody](httptest.NewRecorder(), req)
	}

	t.Run("valid", func(t *testing.T) {
		got, err := decode(`{"username":"ops"}`)

		require.NoError(t, err)
		assert.Equal(t, "ops", got.Username)
	})

	t.Run("runs Validate", func(t *testing.T) {
		_, err := decode(`{"username":" "}`)

		var fields *apperrors.ValidationErrors
		require.ErrorAs(t, err, &fields)
		assert.Contains(t, fields.Errors, "username")
	})

	for name, body := range map[string]string{
		"malformed":     `{"username":`,
		"unknown field": `{"username":"ops","admin":true}`,
		"trailing data": `{"username":"ops"} {"username":"root"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decode(body)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		})
	}
}
