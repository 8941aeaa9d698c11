package domain

import "time"

// Role is the closed set of access categories for the reporting portal.
// Roles are flat: no role implies another.
type Role string

const (
	RoleLeader     Role = "leader"
	RoleStaff      Role = "staff"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// ParseRole maps a raw string onto the closed role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleLeader, RoleStaff, RoleSupervisor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// SelfRegisterRole sanitizes a role requested during public registration.
// Admin is never grantable through self-registration; unrecognized or absent
// values fall back to the lowest-privilege role.
func SelfRegisterRole(requested string) Role {
	switch Role(requested) {
	case RoleLeader, RoleStaff, RoleSupervisor:
		return Role(requested)
	}
	return RoleLeader
}

// User is the domain model for portal accounts. The password hash never
// leaves the service boundary.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
