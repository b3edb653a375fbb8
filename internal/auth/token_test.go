package auth

import (
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var issuedAt = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	return m
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	principal := permission.Principal{UserID: domain.NewID(), Role: domain.RoleEditor, Email: "ed@example.com"}

	token, expiresAt, err := m.Issue(principal, issuedAt)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)
	assert.Equal(t, 2, strings.Count(token, "."))

	parsed, err := m.Parse(token, issuedAt.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, principal, parsed)
}

func TestTokenManager_Rejections(t *testing.T) {
	m := newTestManager(t)
	principal := permission.Principal{UserID: domain.NewID(), Role: domain.RoleGeneral}
	token, _, err := m.Issue(principal, issuedAt)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		_, err := m.Parse(token, issuedAt.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("invalid.token.string", issuedAt)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager(strings.Repeat("x", 32), time.Hour)
		require.NoError(t, err)
		_, err = other.Parse(token, issuedAt)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := Claims{
			UserID: principal.UserID,
			Role:   "GENERAL",
			RegisteredClaims: jwtv5.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwtv5.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}
		forged, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.Parse(forged, issuedAt)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := Claims{
			UserID: principal.UserID,
			Role:   "ROOT",
			RegisteredClaims: jwtv5.RegisteredClaims{
				Issuer:    DefaultIssuer,
				ExpiresAt: jwtv5.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}
		forged, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.Parse(forged, issuedAt)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenManager(testSecret, 0)
	assert.Error(t, err)

	m := newTestManager(t)
	_, _, err = m.Issue(permission.Principal{}, issuedAt)
	assert.Error(t, err)
}
