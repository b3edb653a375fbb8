package domain

import "time"

// UserInput carries raw user attributes.
type UserInput struct {
	ID           string
	Email        string
	PasswordHash string
	Name         *string
	DisplayName  *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// User is an account that can authenticate and act on the system. Users are
// never removed; a deleted user carries a deletion instant instead.
type User struct {
	id           string
	email        string
	passwordHash string
	name         optional[string]
	displayName  optional[string]
	role         Role
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    optional[time.Time]
}

// NewUser validates input and returns a User. The email is stored lowercased
// and an omitted role yields RoleGeneral.
func NewUser(in UserInput) (User, error) {
	if !ValidID(in.ID) {
		return User{}, invalid("id", MsgInvalidUserID)
	}
	email, ok := normalizeEmail(in.Email)
	if !ok {
		return User{}, invalid("email", MsgInvalidEmail)
	}
	role, ok := ParseRole(in.Role)
	if !ok {
		return User{}, invalid("role", MsgInvalidRole)
	}
	return User{
		id:           in.ID,
		email:        email,
		passwordHash: in.PasswordHash,
		name:         optionalText(in.Name),
		displayName:  optionalText(in.DisplayName),
		role:         role,
		createdAt:    in.CreatedAt.UTC(),
		updatedAt:    in.UpdatedAt.UTC(),
		deletedAt:    optionalTime(in.DeletedAt),
	}, nil
}

func (u User) ID() string           { return u.id }
func (u User) Email() string        { return u.email }
func (u User) PasswordHash() string { return u.passwordHash }
func (u User) Role() Role           { return u.role }
func (u User) CreatedAt() time.Time { return u.createdAt }
func (u User) UpdatedAt() time.Time { return u.updatedAt }

func (u User) Name() (string, bool)        { return u.name.get() }
func (u User) DisplayName() (string, bool) { return u.displayName.get() }

// Label returns the most human friendly name recorded for the user.
func (u User) Label() string {
	if v, ok := u.displayName.get(); ok {
		return v
	}
	if v, ok := u.name.get(); ok {
		return v
	}
	return u.email
}

// DeletedAt returns the soft-deletion instant, if any.
func (u User) DeletedAt() (time.Time, bool) { return u.deletedAt.get() }

// Deleted reports whether the user has been soft-deleted.
func (u User) Deleted() bool { return u.deletedAt.set }

// Input returns the raw attributes the user was built from.
func (u User) Input() UserInput {
	return UserInput{
		ID:           u.id,
		Email:        u.email,
		PasswordHash: u.passwordHash,
		Name:         u.name.ptr(),
		DisplayName:  u.displayName.ptr(),
		Role:         string(u.role),
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
		DeletedAt:    u.deletedAt.ptr(),
	}
}

// WithRole returns a copy carrying the given role.
func (u User) WithRole(role Role, at time.Time) (User, error) {
	in := u.Input()
	in.Role = string(role)
	in.UpdatedAt = at
	return NewUser(in)
}

// WithDeletedAt returns a soft-deleted copy.
func (u User) WithDeletedAt(at time.Time) (User, error) {
	in := u.Input()
	in.DeletedAt = &at
	in.UpdatedAt = at
	return NewUser(in)
}
