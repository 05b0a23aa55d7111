package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const linkAudience = "magic-link"

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Generate creates a signed access token for the user.
func (s *Symmetric) Generate(uid int64, email string) (string, error) {
	now := s.clock.Now()

	return s.sign(Claims{
		RegisteredClaims: s.registered(strconv.FormatInt(uid, 10), s.audiences, now, now.Add(s.ttl)),
		UserID:           uid,
		UserEmail:        email,
	})
}

// Verify parses and validates an access token.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	if err := s.parse(tokenStr, &claims, s.audiences); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// GenerateLink signs a magic-link token that still validates at expiresAt.
// The exp claim has whole-second precision and is exclusive, so it is rounded
// up to the next second; the session deadline remains the authoritative check.
func (s *Symmetric) GenerateLink(sessionID, code string, expiresAt time.Time) (string, error) {
	exp := expiresAt.Truncate(time.Second).Add(time.Second)

	return s.sign(LinkClaims{
		RegisteredClaims: s.registered(sessionID, []string{linkAudience}, s.clock.Now(), exp),
		SessionID:        sessionID,
		Code:             code,
	})
}

// VerifyLink parses and validates a magic-link token.
func (s *Symmetric) VerifyLink(tokenStr string) (LinkClaims, error) {
	var claims LinkClaims
	if err := s.parse(tokenStr, &claims, []string{linkAudience}); err != nil {
		return LinkClaims{}, err
	}

	if claims.SessionID == "" || claims.Code == "" {
		return LinkClaims{}, ErrInvalidToken
	}

	return claims, nil
}

func (s *Symmetric) registered(subject string, aud []string, now, exp time.Time) libJWT.RegisteredClaims {
	return libJWT.RegisteredClaims{
		ID:        s.uuid.Generate(),
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  aud,
		IssuedAt:  libJWT.NewNumericDate(now),
		NotBefore: libJWT.NewNumericDate(now),
		ExpiresAt: libJWT.NewNumericDate(exp),
	}
}

func (s *Symmetric) sign(claims libJWT.Claims) (string, error) {
	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

func (s *Symmetric) parse(tokenStr string, claims libJWT.Claims, aud []string) error {
	token, err := libJWT.ParseWithClaims(tokenStr, claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.secret, nil
		},
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(aud...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
