// Package auth provides the session layer: JWT cookie tokens, the middleware
// that enforces them, and the integration with the hosted login provider.
//
// Flow: GET /api/login redirects the browser to the provider; the provider
// calls back with a code; the server exchanges the code for the user's
// profile, mirrors the user in the database, and issues a signed JWT in an
// HttpOnly cookie. Protected handlers read the caller's identity from that
// cookie via RequireAuth.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "shareplate"

// SessionTTL is how long a login lasts before the user is sent back through
// the provider.
const SessionTTL = 24 * time.Hour

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret does both; keep it out of source control.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production (openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the user id travels in "sub".
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Tests use this
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the userID from
// the subject claim.
//
// WithValidMethods pins HS256 so a token claiming a different algorithm
// (including "none") is rejected before the signature check.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
