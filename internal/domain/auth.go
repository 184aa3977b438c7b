package domain

import "slices"

// Role is a named grant carried in tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Capability is a single permission checked by route guards.
type Capability string

const (
	CapabilityTodoRead  Capability = "todo:read"
	CapabilityTodoWrite Capability = "todo:write"
	CapabilityUserRead  Capability = "user:read"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:  {CapabilityTodoRead, CapabilityTodoWrite, CapabilityUserRead},
	RoleAdmin: {CapabilityTodoRead, CapabilityTodoWrite, CapabilityUserRead},
}

// DefaultRoles are assigned on registration.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// HasRole reports whether the role set contains role.
func HasRole(roles []Role, role Role) bool {
	return slices.Contains(roles, role)
}

// Can reports whether any role in the set grants capability.
func Can(roles []Role, capability Capability) bool {
	for _, role := range roles {
		if slices.Contains(roleCapabilities[role], capability) {
			return true
		}
	}
	return false
}

// RolesFromStrings converts persisted or decoded role names, dropping unknown values.
func RolesFromStrings(values []string) []Role {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		if role := Role(v); role.Valid() {
			roles = append(roles, role)
		}
	}
	return roles
}

// RoleStrings converts roles into their string form.
func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
