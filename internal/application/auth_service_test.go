package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/auth"
	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	svc := factory.NewAuthService(tokens)
	users := factory.NewUserService()

	registered, err := users.Register(ctx, application.RegisterUserParams{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	t.Run("valid credentials yield a token", func(t *testing.T) {
		result, err := svc.Authenticate(ctx, application.AuthenticateParams{Email: "Owner@Example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID(), result.User.ID())
		assert.True(t, result.ExpiresAt.Equal(factory.Clock.Now().Add(time.Hour)))

		principal, err := svc.ValidateToken(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID(), principal.UserID)
		assert.Equal(t, domain.RoleAdmin, principal.Role)
	})

	for _, tt := range []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "owner@example.com", "nope-nope"},
		{"unknown email", "ghost@example.com", "s3cret-pass"},
		{"empty password", "owner@example.com", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, application.AuthenticateParams{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, application.ErrInvalidCredentials)
		})
	}

	t.Run("role changes apply to issued tokens", func(t *testing.T) {
		member, err := users.Register(ctx, application.RegisterUserParams{Email: "member@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		result, err := svc.Authenticate(ctx, application.AuthenticateParams{Email: "member@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		admin := application.Principal{UserID: registered.ID(), Role: domain.RoleAdmin}
		_, err = users.ChangeRole(ctx, application.ChangeRoleParams{Principal: admin, UserID: member.ID(), Role: "EDITOR"})
		require.NoError(t, err)

		principal, err := svc.ValidateToken(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleEditor, principal.Role)

		require.NoError(t, users.Delete(ctx, admin, member.ID()))
		_, err = svc.ValidateToken(ctx, result.Token)
		assert.ErrorIs(t, err, application.ErrUnauthorized, "deleted accounts lose access")

		_, err = svc.Authenticate(ctx, application.AuthenticateParams{Email: "member@example.com", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	})

	t.Run("expired and malformed tokens", func(t *testing.T) {
		result, err := svc.Authenticate(ctx, application.AuthenticateParams{Email: "owner@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)

		factory.Clock.Advance(2 * time.Hour)
		_, err = svc.ValidateToken(ctx, result.Token)
		assert.ErrorIs(t, err, application.ErrUnauthorized)

		_, err = svc.ValidateToken(ctx, "garbage")
		assert.ErrorIs(t, err, application.ErrUnauthorized)
		_, err = svc.ValidateToken(ctx, "")
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})
}
