package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-insights/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-insights/internal/auth"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// LoginRequest is the body of POST /auth/token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the login request fields.
func (r *LoginRequest) Validate() error {
	return validation.NewValidator().
		Required("username", r.Username).
		MaxLength("username", r.Username, domain.MaxUsernameLength).
		Required("password", r.Password).
		MaxLength("password", r.Password, maxPasswordBytes).
		Err()
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// AuthHandler issues access tokens for the dashboard operator.
type AuthHandler struct {
	authService  ports.AuthService
	tokenManager *auth.TokenManager
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService ports.AuthService,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes registers auth routes on the given router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/token", h.HandleLogin)
}

// HandleLogin exchanges operator credentials for a JWT.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[LoginRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	operator, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	token, err := h.tokenManager.GenerateToken(operator.ID, operator.Username)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operator logged in", "operator_id", operator.ID)

	WriteSuccess(w, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenManager.TTL().Seconds()),
	})
}
