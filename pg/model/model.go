package model

import (
	"context"
	"errors"
	"time"

	"amazobank.com/crm/auth"
)

// Status is the lifecycle state of a user record. Users are never hard
// deleted; deletion moves them to StatusDisabled.
type Status string

const (
	StatusActive   Status = "Active"
	StatusDisabled Status = "Disabled"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
	ErrUserExists   = errors.New("user already exists")
)

// User is a CRM staff account (agent or administrator).
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Role         auth.Role `json:"role"`
	Status       Status    `json:"status"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Active reports whether the account may still sign in.
func (u *User) Active() bool {
	return u.Status != StatusDisabled
}

// ListOptions filters ListUsers.
type ListOptions struct {
	Role            auth.Role
	IncludeDisabled bool
}

// UserStore defines the persistence operations the user service needs.
type UserStore interface {
	// CreateUser inserts u. Returns ErrUserExists when the id is taken and
	// ErrEmailTaken when the email is in use.
	CreateUser(ctx context.Context, u *User) error
	// GetUserByID returns ErrUserNotFound for unknown ids.
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]*User, error)
	// UpdateUser overwrites the mutable fields of an existing user.
	UpdateUser(ctx context.Context, u *User) error
}
