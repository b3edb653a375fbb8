package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/equipment-reservation/internal/persistence"
)

// TokenIssuer signs and verifies bearer tokens that identify a principal.
type TokenIssuer interface {
	Issue(principal Principal, issuedAt time.Time) (token string, expiresAt time.Time, err error)
	Parse(token string, at time.Time) (Principal, error)
}

// AuthService exchanges credentials for bearer tokens and resolves tokens
// back into principals.
type AuthService struct {
	serviceBase
	users  persistence.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, hasher PasswordHasher, tokens TokenIssuer, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(users, hasher, tokens, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users persistence.UserRepository, hasher PasswordHasher, tokens TokenIssuer, now func() time.Time, logger *slog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	return &AuthService{
		serviceBase: newServiceBase("AuthService", nil, now, logger),
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
	}
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil || s.tokens == nil {
		return fmt.Errorf("auth dependencies not configured")
	}
	return nil
}

// Authenticate validates credentials and issues a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Authenticate", time.Now())

	email := normalizeKey(params.Email)
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		logOutcome(ctx, logger, err, "authentication failed", "authentication succeeded",
			"user_id", result.User.ID(),
			"expires_at", result.ExpiresAt,
		)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	user, found, findErr := s.users.FindByEmail(ctx, email)
	if findErr != nil {
		err = mapRepoError("find user by email", findErr)
		return
	}
	if !found || user.Deleted() {
		err = ErrInvalidCredentials
		return
	}
	if verifyErr := s.hasher.Verify(user.PasswordHash(), params.Password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	principal := Principal{UserID: user.ID(), Role: user.Role(), Email: user.Email()}
	var token string
	var expiresAt time.Time
	if token, expiresAt, err = s.tokens.Issue(principal, s.now()); err != nil {
		err = fmt.Errorf("issue token: %w", err)
		return
	}
	result = AuthenticateResult{User: user, Token: token, ExpiresAt: expiresAt}
	return
}

// ValidateToken resolves a bearer token into the principal it names. The role
// is read from the stored account so changes apply to tokens already issued;
// tokens of deleted accounts are rejected.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if err := s.ready(); err != nil {
		return Principal{}, err
	}
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	claimed, err := s.tokens.Parse(token, s.now())
	if err != nil {
		s.loggerWith(ctx, "ValidateToken").DebugContext(ctx, "token rejected", "error", err)
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, found, err := s.users.FindByID(ctx, claimed.UserID)
	if err != nil {
		return Principal{}, mapRepoError("find user", err)
	}
	if !found || user.Deleted() {
		return Principal{}, ErrUnauthorized
	}
	return Principal{UserID: user.ID(), Role: user.Role(), Email: user.Email()}, nil
}
