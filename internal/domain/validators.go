package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidID reports whether raw is a canonical, hyphenated UUID string.
func ValidID(raw string) bool {
	if len(raw) != 36 {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

// NewID returns a fresh random identifier accepted by ValidID.
func NewID() string {
	return uuid.NewString()
}

// Role is the global authorization tier of a user.
type Role string

const (
	RoleGeneral Role = "GENERAL"
	RoleEditor  Role = "EDITOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole converts raw input into a Role. An empty value yields the least
// privileged role.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", RoleGeneral:
		return RoleGeneral, true
	case RoleEditor:
		return RoleEditor, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleGeneral || r == RoleEditor || r == RoleAdmin
}

// RunningState is the operational status of a piece of equipment.
type RunningState string

const (
	RunningStateOperational  RunningState = "OPERATIONAL"
	RunningStateMaintenance  RunningState = "MAINTENANCE"
	RunningStateOutOfService RunningState = "OUT_OF_SERVICE"
	RunningStateRetired      RunningState = "RETIRED"
)

// ParseRunningState converts raw input into a RunningState. An empty value
// yields RunningStateOperational.
func ParseRunningState(raw string) (RunningState, bool) {
	state := RunningState(strings.ToUpper(strings.TrimSpace(raw)))
	if state == "" {
		return RunningStateOperational, true
	}
	if state.Valid() {
		return state, true
	}
	return "", false
}

// Valid reports whether s is one of the known running states.
func (s RunningState) Valid() bool {
	switch s {
	case RunningStateOperational, RunningStateMaintenance, RunningStateOutOfService, RunningStateRetired:
		return true
	}
	return false
}

// optional marks a field that may be absent. The zero value is absent.
type optional[T any] struct {
	value T
	set   bool
}

func some[T any](v T) optional[T] {
	return optional[T]{value: v, set: true}
}

func (o optional[T]) get() (T, bool) {
	return o.value, o.set
}

func (o optional[T]) ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// optionalText trims the value and treats blank input as absent.
func optionalText(raw *string) optional[string] {
	if raw == nil {
		return optional[string]{}
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return optional[string]{}
	}
	return some(trimmed)
}

// optionalID trims the value, treats blank input as absent and reports
// whether a present value is a valid identifier.
func optionalID(raw *string) (optional[string], bool) {
	value := optionalText(raw)
	if id, ok := value.get(); ok && !ValidID(id) {
		return optional[string]{}, false
	}
	return value, true
}

func optionalInt(raw *int) optional[int] {
	if raw == nil {
		return optional[int]{}
	}
	return some(*raw)
}

func optionalTime(raw *time.Time) optional[time.Time] {
	if raw == nil || raw.IsZero() {
		return optional[time.Time]{}
	}
	return some(raw.UTC())
}

func required(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	return trimmed, trimmed != ""
}

// normalizeEmail lowercases a bare address and rejects display-name forms.
func normalizeEmail(raw string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", false
	}
	return trimmed, true
}

// StringPtr returns a pointer to s. It keeps call sites that build inputs
// from literals short.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
