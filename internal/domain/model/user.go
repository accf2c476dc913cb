package model

import (
	"time"
)

// Role is a closed set of actor capability profiles. Admin and super_admin
// are overlapping but distinct capability sets, so roles are never compared
// ordinally; the policy package holds the capability table.
type Role string

const (
	RoleRecruiter  Role = "recruiter"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleRecruiter, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           Role      `json:"role"`
	AvatarURL      *string   `json:"avatar_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// CredentialsCount is populated only by the admin user listing.
	CredentialsCount int `json:"credentials_count,omitempty"`
}
