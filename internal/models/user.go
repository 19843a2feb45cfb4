package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a staff account can hold.
type Role string

const (
	RoleUnknown       Role = ""
	RoleAdministrator Role = "admin"
	RoleManager       Role = "manager"
	RoleViewer        Role = "viewer"
)

// ParseRole maps a stored or submitted value onto a known role.
// Anything unrecognised becomes RoleUnknown, which grants nothing.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdministrator, RoleManager, RoleViewer:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is one of the three assignable roles.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != RoleUnknown
}

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose in JSON
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	IsSuperuser  bool      `db:"is_superuser" json:"is_superuser"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdministrator is true for the admin role or any superuser.
func (u *User) IsAdministrator() bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || ParseRole(string(u.Role)) == RoleAdministrator
}

// IsManager is true only for the manager role.
func (u *User) IsManager() bool {
	if u == nil {
		return false
	}
	return ParseRole(string(u.Role)) == RoleManager
}

// IsViewer is true only for the viewer role.
func (u *User) IsViewer() bool {
	if u == nil {
		return false
	}
	return ParseRole(string(u.Role)) == RoleViewer
}

func (u *User) String() string {
	if u == nil {
		return "anonymous"
	}
	return u.Username + " (" + string(u.Role) + ")"
}

// UserRequest is used for user creation requests
type UserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Name        string `json:"name" validate:"max=150"`
	Role        Role   `json:"role" validate:"required,oneof=admin manager viewer"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// UserUpdateRequest is used for updating user information
type UserUpdateRequest struct {
	Name        string `json:"name" validate:"max=150"`
	Role        Role   `json:"role" validate:"required,oneof=admin manager viewer"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// PasswordChangeRequest is submitted by a user changing their own password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}
