// Package jwt signs and verifies the access tokens and magic-link tokens issued
// after email verification.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT generates and verifies access tokens.
type JWT interface {
	Generate(uid int64, email string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

// LinkSigner binds a session and its code into a tamper-evident link token.
type LinkSigner interface {
	GenerateLink(sessionID, code string, expiresAt time.Time) (string, error)
	VerifyLink(tokenStr string) (LinkClaims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims are carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

// LinkClaims are carried by magic-link tokens.
type LinkClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Code      string `json:"code"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
