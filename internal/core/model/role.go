package model

import (
	"fmt"
	"strings"
)

// Role is a position in the authority ladder. The same values are used for a
// user's global role and for a role scoped to one organization.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleOrgAdmin Role = "org-admin"
	RoleLead     Role = "lead"
	RoleMember   Role = "member"
)

// Comparison is the result of Compare.
type Comparison int

const (
	Lower Comparison = iota - 1
	Equal
	Higher
)

func (c Comparison) String() string {
	switch c {
	case Higher:
		return "higher"
	case Lower:
		return "lower"
	default:
		return "equal"
	}
}

var roleRank = map[Role]int{
	RoleMember:   1,
	RoleLead:     2,
	RoleOrgAdmin: 3,
	RoleOwner:    4,
}

// Roles lists every role from highest to lowest authority.
func Roles() []Role {
	return []Role{RoleOwner, RoleOrgAdmin, RoleLead, RoleMember}
}

// ParseRole converts user input into a Role. Unknown values are rejected,
// never mapped to a default.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Compare reports whether a is higher, equal or lower than b. Unknown roles
// rank below every valid role.
func Compare(a, b Role) Comparison {
	ra, rb := roleRank[a], roleRank[b]
	switch {
	case ra > rb:
		return Higher
	case ra < rb:
		return Lower
	default:
		return Equal
	}
}

// AtLeast reports whether role carries at least the authority of threshold.
func AtLeast(role, threshold Role) bool {
	if !role.Valid() || !threshold.Valid() {
		return false
	}
	return Compare(role, threshold) != Lower
}
