package domain

import "time"

// Role is the closed set of actor roles known to the engine.
type Role string

const (
	RoleUser    Role = "USER"
	RoleVendor  Role = "VENDOR"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Supervisory reports whether the role may override workflow rules.
func (r Role) Supervisory() bool {
	return r == RoleManager || r == RoleAdmin
}

// User is the engine's view of a tenant member. Provisioning and credentials
// live outside this service; only identity and role are consumed here.
type User struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
}
