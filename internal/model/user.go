package model

import "time"

// Staff roles recognised by the role middleware.  Guests are
// unauthenticated and never carry a user record.
const (
	RoleAdmin      = "admin"
	RoleReception  = "reception"
	RoleKitchen    = "kitchen"
	RoleAccounting = "accounting"
)

// User is a staff account.  Passwords are stored as bcrypt hashes and
// sessions are issued as JWT access tokens plus revocable refresh tokens.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidRole reports whether r is one of the staff roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleReception, RoleKitchen, RoleAccounting:
		return true
	}
	return false
}
