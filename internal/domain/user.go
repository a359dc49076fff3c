package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	UserTypeStaff  = "staff"
	UserTypePatron = "patron"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	UserType     string    `json:"user_type"`
	IsActive     bool      `json:"is_active"`
	RoleID       int32     `json:"role_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is an authenticated caller: the user plus their resolved role.
// The circulation service checks ownership and permissions against the
// actor directly, so the rules hold no matter which transport called in.
type Actor struct {
	User
	Role Role `json:"role"`
}

func (a *Actor) IsStaff() bool {
	return a.UserType == UserTypeStaff
}

func (a *Actor) Can(p Permission) bool {
	return a.Role.HasPermission(p)
}

func (a *Actor) CanAny(ps ...Permission) bool {
	return a.Role.HasAnyPermission(ps...)
}
