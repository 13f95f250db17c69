package domain

import (
	"strings"
	"time"
)

// Role is one of the four fixed CRM roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCEO    Role = "ceo"
	RoleLeader Role = "leader"
	RoleSale   Role = "sale"
)

// Roles lists the known roles from most to least privileged.
var Roles = []Role{RoleAdmin, RoleCEO, RoleLeader, RoleSale}

// ParseRole normalizes a role name. Unknown names are returned as-is so the
// policy table can fail them closed.
func ParseRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// User is a CRM account. Role is assigned out of band and never taken from a
// session request.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
