package workflow

import "errors"

var (
	// ErrRoleNotPermitted indicates the actor holds no role that may drive this lifecycle.
	ErrRoleNotPermitted = errors.New("role not permitted for this transition")
	// ErrUnknownTarget indicates the requested status is not a target the actor may request.
	ErrUnknownTarget = errors.New("requested status is not a valid target")
	// ErrIllegalTransition indicates the entity is not in a state that allows the transition.
	ErrIllegalTransition = errors.New("illegal status transition")
)

type edge[S ~string] struct {
	from S
	to   S
}

// Table is an explicit transition table: (from, to) -> roles allowed to move along that edge.
type Table[S ~string] struct {
	edges map[edge[S]][]Role
	order []edge[S]
}

// Rule declares one allowed edge of a transition table.
type Rule[S ~string] struct {
	From  S
	To    S
	Roles []Role
}

// NewTable builds a transition table from rules.
func NewTable[S ~string](rules ...Rule[S]) Table[S] {
	table := Table[S]{edges: make(map[edge[S]][]Role, len(rules))}
	for _, rule := range rules {
		key := edge[S]{from: rule.From, to: rule.To}
		if _, exists := table.edges[key]; !exists {
			table.order = append(table.order, key)
		}
		table.edges[key] = append(table.edges[key], rule.Roles...)
	}
	return table
}

// Targets lists the statuses the given roles may request on any edge.
func (t Table[S]) Targets(roles RoleSet) []S {
	seen := map[S]struct{}{}
	targets := make([]S, 0)
	for _, key := range t.order {
		if !roles.HasAny(t.edges[key]...) {
			continue
		}
		if _, ok := seen[key.to]; ok {
			continue
		}
		seen[key.to] = struct{}{}
		targets = append(targets, key.to)
	}
	return targets
}

// Check validates moving from -> to for an actor holding roles.
//
// It fails with ErrRoleNotPermitted when roles may not drive any edge,
// ErrUnknownTarget when to is not something these roles can ever request,
// and ErrIllegalTransition when the edge is not open from the current state.
func (t Table[S]) Check(from, to S, roles RoleSet) error {
	targets := t.Targets(roles)
	if len(targets) == 0 {
		return ErrRoleNotPermitted
	}

	known := false
	for _, target := range targets {
		if target == to {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownTarget
	}

	allowed, ok := t.edges[edge[S]{from: from, to: to}]
	if !ok || !roles.HasAny(allowed...) {
		return ErrIllegalTransition
	}

	return nil
}

// Allows reports whether the edge from -> to is open to roles.
func (t Table[S]) Allows(from, to S, roles RoleSet) bool {
	return t.Check(from, to, roles) == nil
}
