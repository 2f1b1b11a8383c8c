package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role is a user's role in the platform.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAdmin     Role = "ADMIN"
)

var (
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrNameRequired = errors.New("name is required")
)

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

func (r Role) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// User is stored in the "users" collection. Active is the flag the client
// overlays with a local override while a change is in flight.
type User struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser returns an active user with rating 5.0.
func NewUser(name, email string, role Role) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Role:      role,
		Active:    true,
		Rating:    5.0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (u *User) IsDriver() bool    { return u.Role == RoleDriver }
func (u *User) IsPassenger() bool { return u.Role == RolePassenger }
