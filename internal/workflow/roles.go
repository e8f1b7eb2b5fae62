package workflow

import (
	"sort"
	"strings"
)

// Role names an organizational role that gates lifecycle transitions.
type Role string

const (
	RoleSuccessOps    Role = "success ops"
	RoleCIO           Role = "cio"
	RolePresident     Role = "society president"
	RoleVicePresident Role = "society vice president"
	RoleSecretary     Role = "society secretary"
	RoleFellow        Role = "fellow"
)

// NormalizeRole lowercases and trims a role name.
func NormalizeRole(name string) Role {
	return Role(strings.ToLower(strings.TrimSpace(name)))
}

// Executive reports whether role is a society office held by at most one member per society.
func (r Role) Executive() bool {
	switch r {
	case RolePresident, RoleVicePresident, RoleSecretary:
		return true
	}
	return false
}

// Builtin reports whether the lifecycle tables refer to role by name.
func (r Role) Builtin() bool {
	switch r {
	case RoleSuccessOps, RoleCIO, RoleFellow:
		return true
	}
	return r.Executive()
}

// ExecutiveRoles lists the society offices.
func ExecutiveRoles() []Role {
	return []Role{RolePresident, RoleVicePresident, RoleSecretary}
}

// RoleSet is the set of roles held by an actor.
type RoleSet map[Role]struct{}

// NewRoleSet builds a role set from raw role names, ignoring blanks.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		role := NormalizeRole(name)
		if role == "" {
			continue
		}
		set[role] = struct{}{}
	}
	return set
}

// Has reports whether the set contains role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether the set contains at least one of roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, role := range roles {
		if s.Has(role) {
			return true
		}
	}
	return false
}

// Only returns the subset of s limited to roles.
func (s RoleSet) Only(roles ...Role) RoleSet {
	subset := make(RoleSet, len(roles))
	for _, role := range roles {
		if s.Has(role) {
			subset[role] = struct{}{}
		}
	}
	return subset
}

// Names returns the role names in the set, sorted.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for role := range s {
		names = append(names, string(role))
	}
	sort.Strings(names)
	return names
}
