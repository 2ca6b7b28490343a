package permission

import (
	"errors"
	"strings"
)

// Role is the closed set of privilege levels an identity can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// DefaultRole is assigned when registration does not name one.
const DefaultRole = RoleUser

// ErrUnknownRole is returned by ParseRole for values outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole trims and case-folds s and maps it onto a Role. It is the only
// place role strings are normalized.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// declared lists roles in the order RoleSet.Roles reports them. A role's
// index is its bit in a RoleSet mask.
var declared = [...]Role{RoleAdmin, RoleManager, RoleUser}

func (r Role) bit() int {
	for i, d := range declared {
		if d == r {
			return i
		}
	}
	return -1
}

// RoleSet is an immutable set of roles allowed through a RoleGate. The zero
// value is empty.
type RoleSet struct {
	mask Mask
}

// NewRoleSet builds a set from already-typed roles. Unknown roles are
// skipped.
func NewRoleSet(roles ...Role) RoleSet {
	var set RoleSet
	for _, r := range roles {
		if p, err := ParseRole(string(r)); err == nil {
			set.mask.Set(p.bit())
		}
	}
	return set
}

// ParseRoleSet builds a set from configuration strings using ParseRole.
func ParseRoleSet(names ...string) (RoleSet, error) {
	var set RoleSet
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return RoleSet{}, errors.New("unknown role in set: " + n)
		}
		set.mask.Set(r.bit())
	}
	return set, nil
}

// Contains reports whether r is a member.
func (s RoleSet) Contains(r Role) bool {
	return s.mask.Has(r.bit())
}

// Allows parses raw the same way the set was built and checks membership.
// It reports ok=false when raw is not a known role.
func (s RoleSet) Allows(raw string) (allowed bool, ok bool) {
	r, err := ParseRole(raw)
	if err != nil {
		return false, false
	}
	return s.Contains(r), true
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int { return s.mask.Count() }

// Roles returns the members in declaration order: admin, manager, user.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, s.Len())
	for i, r := range declared {
		if s.mask.Has(i) {
			out = append(out, r)
		}
	}
	return out
}
