package domain

import (
	"strings"
	"time"
)

// Role names carried in the user's comma-separated roles string.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an account holder. Email is the verified caller identity handed
// to the core by the authentication layer; ownership of cards is derived
// from Card.UserID, never from client-supplied foreign keys.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose
	Roles        string    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range strings.Split(u.Roles, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
