package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

const (
	defaultTokenTTL = 8 * time.Hour
	issuer          = "sitetrack"
	roleAdmin       = "admin"
)

// Claims carried by an admin session token
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the caller capability passed into every privileged operation.
type Session struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session may use the admin mutation path.
func (s Session) IsAdmin(now time.Time) bool {
	return s.Role == roleAdmin && now.Before(s.ExpiresAt)
}

// Authenticator checks the shared admin secret against a bcrypt hash and
// issues expiring HS256 session tokens.
type Authenticator struct {
	secretHash []byte
	signingKey []byte
	ttl        time.Duration
	limiter    Limiter
	now        func() time.Time
}

// NewAuthenticator builds an authenticator. limiter may be nil.
func NewAuthenticator(secretHash, signingKey string, ttl time.Duration, limiter Limiter) (*Authenticator, error) {
	if _, err := bcrypt.Cost([]byte(secretHash)); err != nil {
		return nil, fmt.Errorf("admin secret hash is not a bcrypt hash: %w", err)
	}
	if len(signingKey) < 16 {
		return nil, errors.New("token signing key must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Authenticator{
		secretHash: []byte(secretHash),
		signingKey: []byte(signingKey),
		ttl:        ttl,
		limiter:    limiter,
		now:        time.Now,
	}, nil
}

// HashSecret produces the bcrypt hash stored in configuration.
func HashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashed), nil
}

// Authenticate reports whether secret matches the configured admin secret.
func (a *Authenticator) Authenticate(secret string) bool {
	return bcrypt.CompareHashAndPassword(a.secretHash, []byte(secret)) == nil
}

// Login verifies secret for client and returns a signed session token.
func (a *Authenticator) Login(ctx context.Context, client, secret string) (string, Session, error) {
	blocked, err := a.limiter.Blocked(ctx, client)
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to check login attempts: %w", err)
	}
	if blocked {
		return "", Session{}, fmt.Errorf("%w: too many failed attempts", entity.ErrNotAuthorized)
	}

	if !a.Authenticate(secret) {
		if err := a.limiter.Fail(ctx, client); err != nil {
			return "", Session{}, fmt.Errorf("failed to record login attempt: %w", err)
		}
		return "", Session{}, fmt.Errorf("%w: wrong admin secret", entity.ErrNotAuthorized)
	}
	if err := a.limiter.Reset(ctx, client); err != nil {
		return "", Session{}, fmt.Errorf("failed to reset login attempts: %w", err)
	}

	now := a.now()
	session := Session{Subject: client, Role: roleAdmin, ExpiresAt: now.Add(a.ttl).Truncate(time.Second)}
	claims := &Claims{
		Role: session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, session, nil
}

// Verify parses a session token. Expired, forged or malformed tokens yield ErrNotAuthorized.
func (a *Authenticator) Verify(tokenStr string) (Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return Session{}, fmt.Errorf("%w: invalid token", entity.ErrNotAuthorized)
	}
	if claims.Role != roleAdmin || claims.ExpiresAt == nil {
		return Session{}, fmt.Errorf("%w: token lacks admin role", entity.ErrNotAuthorized)
	}

	return Session{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
