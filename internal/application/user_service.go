package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
	"github.com/example/equipment-reservation/internal/persistence"
)

// UserService manages accounts. The very first registered account becomes
// an administrator so a fresh installation can be bootstrapped.
type UserService struct {
	serviceBase
	users  persistence.UserRepository
	hasher PasswordHasher
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, hasher PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hasher, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, hasher PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	return &UserService{
		serviceBase: newServiceBase("UserService", idGenerator, now, logger),
		users:       users,
		hasher:      hasher,
	}
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// Register creates an account from self-service sign up.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (user domain.User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Register", time.Now())
	logger := s.loggerWith(ctx, "Register")
	defer func() {
		logOutcome(ctx, logger, err, "failed to register user", "user registered",
			"user_id", user.ID(),
			"role", user.Role(),
		)
	}()

	if err = validatePassword(params.Password); err != nil {
		return
	}

	now := s.now()
	in := domain.UserInput{
		ID:          s.idGenerator(),
		Email:       params.Email,
		Name:        params.Name,
		DisplayName: params.DisplayName,
		Role:        string(domain.RoleGeneral),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err = domain.NewUser(in); err != nil {
		return
	}

	var existing int
	existing, err = s.users.Count(ctx)
	if err != nil {
		err = mapRepoError("count users", err)
		return
	}
	if existing == 0 {
		in.Role = string(domain.RoleAdmin)
	}

	if _, found, findErr := s.users.FindByEmail(ctx, in.Email); findErr != nil {
		err = mapRepoError("find user by email", findErr)
		return
	} else if found {
		err = ErrAlreadyExists
		return
	}

	if in.PasswordHash, err = s.hasher.Hash(params.Password); err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}
	if user, err = domain.NewUser(in); err != nil {
		return
	}
	err = mapRepoError("save user", s.users.Save(ctx, user))
	return
}

// Get returns a live account. Users may read themselves; administrators may
// read anyone.
func (s *UserService) Get(ctx context.Context, principal Principal, userID string) (domain.User, error) {
	if err := s.ready(); err != nil {
		return domain.User{}, err
	}
	if err := authorize(principal, permission.CanEditUserProfile(principal, userID)); err != nil {
		return domain.User{}, err
	}
	return s.findLive(ctx, userID)
}

// List returns every live account for administrators.
func (s *UserService) List(ctx context.Context, principal Principal) (users []domain.User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "List", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list users", "users listed", "result_count", len(users))
	}()

	if err = authorize(principal, permission.CanManageUsers(principal)); err != nil {
		return
	}
	users, err = s.users.FindAll(ctx)
	err = mapRepoError("list users", err)
	return
}

// UpdateProfile changes names and optionally the password of an account.
func (s *UserService) UpdateProfile(ctx context.Context, params UpdateProfileParams) (user domain.User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("UpdateProfile", time.Now())
	logger := s.loggerWith(ctx, "UpdateProfile",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update user profile", "user profile updated",
			"password_changed", params.Password != "",
		)
	}()

	if err = authorize(params.Principal, permission.CanEditUserProfile(params.Principal, params.UserID)); err != nil {
		return
	}
	if params.Password != "" {
		if err = validatePassword(params.Password); err != nil {
			return
		}
	}

	var existing domain.User
	if existing, err = s.findLive(ctx, params.UserID); err != nil {
		return
	}
	in := existing.Input()
	in.Name = params.Name
	in.DisplayName = params.DisplayName
	in.UpdatedAt = s.now()
	if params.Password != "" {
		if in.PasswordHash, err = s.hasher.Hash(params.Password); err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
	}
	if user, err = domain.NewUser(in); err != nil {
		return
	}
	err = mapRepoError("save user", s.users.Save(ctx, user))
	return
}

// ChangeRole assigns a global role. Only administrators may do this.
func (s *UserService) ChangeRole(ctx context.Context, params ChangeRoleParams) (user domain.User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("ChangeRole", time.Now())
	logger := s.loggerWith(ctx, "ChangeRole",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
		"role", params.Role,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to change user role", "user role changed")
	}()

	role, ok := domain.ParseRole(params.Role)
	if !ok {
		err = validationFailure("role", domain.MsgInvalidRole)
		return
	}
	if err = authorize(params.Principal, permission.CanManageUsers(params.Principal)); err != nil {
		return
	}

	var existing domain.User
	if existing, err = s.findLive(ctx, params.UserID); err != nil {
		return
	}
	if user, err = existing.WithRole(role, s.now()); err != nil {
		return
	}
	err = mapRepoError("save user", s.users.Save(ctx, user))
	return
}

// Delete soft-deletes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, principal Principal, userID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete user", "user deleted")
	}()

	if err = authorize(principal, permission.CanManageUsers(principal)); err != nil {
		return
	}
	if userID == principal.UserID {
		err = fmt.Errorf("%w: cannot delete own account", ErrForbidden)
		return
	}
	err = mapRepoError("delete user", s.users.SoftDelete(ctx, userID, s.now()))
	return
}

func (s *UserService) findLive(ctx context.Context, userID string) (domain.User, error) {
	user, err := findRequired(ctx, s.users.FindByID, userID, "find user")
	if err != nil {
		return domain.User{}, err
	}
	if user.Deleted() {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}
