// Package auth issues and verifies the HS256 bearer tokens that carry an
// authenticated principal between requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
)

// DefaultIssuer is stamped into every token unless overridden.
const DefaultIssuer = "equipment-reservation"

// minSecretLength guards against trivially guessable signing keys.
const minSecretLength = 32

var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrWeakSecret   = fmt.Errorf("auth: signing secret must be at least %d bytes", minSecretLength)
)

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwtv5.RegisteredClaims
}

// TokenManager signs and parses tokens with a shared secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager returns a manager issuing tokens valid for ttl.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, issuer: DefaultIssuer}, nil
}

// TTL returns how long issued tokens stay valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for principal, valid from issuedAt for the manager TTL.
func (m *TokenManager) Issue(principal permission.Principal, issuedAt time.Time) (string, time.Time, error) {
	if !principal.Authenticated() {
		return "", time.Time{}, fmt.Errorf("auth: cannot issue a token without a user id")
	}
	expiresAt := issuedAt.Add(m.ttl).UTC().Truncate(time.Second)
	claims := Claims{
		UserID: principal.UserID,
		Role:   string(principal.Role),
		Email:  principal.Email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principal.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwtv5.NewNumericDate(issuedAt),
			ExpiresAt: jwtv5.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies token as of at and returns the principal it carries.
func (m *TokenManager) Parse(token string, at time.Time) (permission.Principal, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(m.issuer),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(func() time.Time { return at }),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return permission.Principal{}, ErrTokenExpired
		}
		return permission.Principal{}, ErrTokenInvalid
	}
	if !parsed.Valid || !domain.ValidID(claims.UserID) {
		return permission.Principal{}, ErrTokenInvalid
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return permission.Principal{}, ErrTokenInvalid
	}
	return permission.Principal{UserID: claims.UserID, Role: role, Email: claims.Email}, nil
}
