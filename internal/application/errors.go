package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
)

var (
	// ErrUnauthorized is returned when no authenticated principal accompanies the call.
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrForbidden is returned when the principal lacks the privilege for an operation.
	ErrForbidden = errors.New("Forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule rejects the write.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
)

// MsgTimeSlotReserved is the message carried by every ConflictError.
const MsgTimeSlotReserved = "Time slot already reserved"

// ConflictError reports that a reservation window overlaps existing bookings
// of the same equipment. ReservationIDs is empty when the overlap was caught
// by the store rather than by the pre-check.
type ConflictError struct {
	EquipmentID    string
	ReservationIDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return MsgTimeSlotReserved
}

// InfrastructureError wraps a storage failure the caller cannot act on.
type InfrastructureError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InfrastructureError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return fmt.Sprintf("infrastructure failure: %v", e.Err)
	}
	return fmt.Sprintf("infrastructure failure during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *InfrastructureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// validationFailure builds a validation error for checks that live outside
// the entity factories.
func validationFailure(field, message string) error {
	return &domain.ValidationError{Field: field, Message: message}
}

// authorize converts a permission decision into the matching sentinel.
func authorize(principal Principal, allowed bool) error {
	if !principal.Authenticated() {
		return ErrUnauthorized
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// mapRepoError translates persistence sentinels into application errors. Any
// failure the caller cannot branch on becomes an InfrastructureError.
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: referenced record is missing", ErrNotFound)
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrOverlap):
		return &ConflictError{}
	}
	return &InfrastructureError{Op: op, Err: err}
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
