package model

// Role is one of a small closed set of permission tags attached to a user.
// Keeping this a dedicated type (rather than free-form strings) means a typo
// in a route definition fails to compile instead of silently never matching.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a member of the closed role set.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// Roles is the set of roles held by a user.
type Roles []Role

// Has reports whether the set contains the given role.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether the set shares at least one role with required.
func (rs Roles) Intersects(required []Role) bool {
	for _, r := range required {
		if rs.Has(r) {
			return true
		}
	}
	return false
}
