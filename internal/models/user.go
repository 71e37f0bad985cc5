package models

// Role defines the access tier of an actor. Authentication itself is
// external; the core only receives identity plus role.
type Role string

const (
	RoleHOD        Role = "hod"
	RoleDean       Role = "dean"
	RoleHallAdmin  Role = "hall_admin"
	RoleSuperAdmin Role = "super_admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleHOD, RoleDean, RoleHallAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor is the requester identity attached to every permission-checked
// operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor is a super admin.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// IsHallAdmin reports whether the actor has the hall admin role. Whether
// they administer a particular venue is a separate assignment lookup.
func (a Actor) IsHallAdmin() bool {
	return a.Role == RoleHallAdmin
}

// CanBookVenue reports whether the actor's role is allowed to create
// bookings at all.
func (a Actor) CanBookVenue() bool {
	switch a.Role {
	case RoleHOD, RoleDean, RoleSuperAdmin:
		return true
	}
	return false
}
