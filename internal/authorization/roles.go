// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import "fmt"

// Role is a tenant-scoped role. Member, admin and owner form a strict total
// order; Ops sits outside that order and is never comparable to the other
// three. Call sites must go through the policy functions instead of comparing
// role strings.
type Role int8

const (
	// RoleNone is the role of an unauthenticated or unresolved subject.
	RoleNone Role = iota
	RoleMember
	RoleAdmin
	RoleOwner
	// RoleOps is the operator role, held via a membership in an operator
	// organization. It is not above or below any tenant role.
	RoleOps
)

const (
	roleMemberName = "member"
	roleAdminName  = "admin"
	roleOwnerName  = "owner"
	roleOpsName    = "ops"
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return roleMemberName
	case RoleAdmin:
		return roleAdminName
	case RoleOwner:
		return roleOwnerName
	case RoleOps:
		return roleOpsName
	}
	return ""
}

// MarshalJSON serializes the role under its storage name.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *Role) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid role: %s", data)
	}
	parsed, err := ParseRole(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole maps a stored role string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case roleMemberName:
		return RoleMember, nil
	case roleAdminName:
		return RoleAdmin, nil
	case roleOwnerName:
		return RoleOwner, nil
	case roleOpsName:
		return RoleOps, nil
	}
	return RoleNone, fmt.Errorf("unknown role: %q", s)
}

// ordered reports whether the role participates in the member < admin < owner
// hierarchy.
func (r Role) ordered() bool {
	return r == RoleMember || r == RoleAdmin || r == RoleOwner
}

// AtLeast reports whether r sits at or above min in the tenant hierarchy.
// It is false whenever either side is outside the hierarchy, so an operator
// is never "at least" a member and an owner is never "at least" an operator.
func (r Role) AtLeast(min Role) bool {
	if !r.ordered() || !min.ordered() {
		return false
	}
	return r >= min
}
