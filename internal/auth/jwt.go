package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "service-desk-insights"
	audience = "insights-dashboard"
	leeway   = 30 * time.Second
)

// ErrInvalidToken wraps every token validation failure. The jwt sentinels
// (jwt.ErrTokenExpired and friends) stay reachable through errors.Is.
var ErrInvalidToken = errors.New("invalid token")

// Claims identify the dashboard operator a token was issued to.
type Claims struct {
	OperatorID uuid.UUID `json:"operator_id"`
	Username   string    `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

// NewTokenManager creates a token manager. A non-positive ttl means one hour.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secretKey: []byte(secret),
		ttl:       ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// TTL returns how long issued tokens stay valid.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// GenerateToken signs an access token for the operator.
func (tm *TokenManager) GenerateToken(operatorID uuid.UUID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		OperatorID: operatorID,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   operatorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer, audience and expiry.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := tm.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.OperatorID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing operator id", ErrInvalidToken)
	}
	return claims, nil
}
