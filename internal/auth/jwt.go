package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

// Claims is the validated content of a session token.
type Claims struct {
	AccountID uuid.UUID
	Email     string
	// JTI identifies the token for revocation.
	JTI       string
	ExpiresAt time.Time
}

// JWTManager handles session access token generation and validation.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// accessClaims extends standard JWT claims with the account email.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// GenerateAccessToken creates a signed HS256 JWT with the account ID as
// subject, the email as a custom claim and a random token id.
func (m *JWTManager) GenerateAccessToken(accountID uuid.UUID, email string) (string, error) {
	now := m.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a JWT access token.
// An expired token yields an error wrapping domain.ErrAuthExpired; any
// other failure wraps domain.ErrUnauthorized.
func (m *JWTManager) ValidateAccessToken(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, fmt.Errorf("token is empty: %w", domain.ErrUnauthorized)
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("JWT expired: %w", domain.ErrAuthExpired)
		}
		return Claims{}, fmt.Errorf("parse token: %v: %w", err, domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}

	if claims.Issuer != m.issuer {
		return Claims{}, fmt.Errorf("invalid issuer: expected %s, got %s: %w", m.issuer, claims.Issuer, domain.ErrUnauthorized)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid subject UUID: %v: %w", err, domain.ErrUnauthorized)
	}

	out := Claims{AccountID: accountID, Email: claims.Email, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
