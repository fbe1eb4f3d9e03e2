package auth

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleHost       Role = "host"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Privileged reports whether the role may act on meetings it does not host
// (finalize, review queue, pairing).
func (r Role) Privileged() bool {
	switch r {
	case RoleModerator, RoleAdmin, RoleSuperadmin:
		return true
	default:
		return false
	}
}

// User is the domain representation of an authenticated user.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	UsedCredits  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
