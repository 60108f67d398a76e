// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package authorization holds the request-time access policy: the fixed role
// hierarchy, the domain classification and the pure decision functions the
// gate and the executors consume. Nothing in this package performs I/O.
package authorization

// Verdict is the outcome of a policy check. The caller decides how each
// verdict renders (redirect, 403, 404); the policy only decides access.
type Verdict int8

const (
	Allow Verdict = iota
	// DenyForbidden is an authenticated subject with an insufficient role.
	DenyForbidden
	// DenyUnauthenticated is an unresolvable subject on a domain that
	// invites sign-in.
	DenyUnauthenticated
	// DenyNotFound disguises the denial as a missing resource. The ops
	// domain always degrades to this so its existence is never confirmed.
	DenyNotFound
)

// Decision couples a verdict with a human-readable reason for deny paths.
type Decision struct {
	Verdict Verdict
	Reason  string
}

func allow() Decision {
	return Decision{Verdict: Allow}
}

func deny(v Verdict, reason string) Decision {
	return Decision{Verdict: v, Reason: reason}
}

// CheckDomain decides whether a subject holding role r may enter domain d.
// The subject's role is the one resolved for the target organization;
// RoleNone covers both missing sessions and unresolved memberships.
func CheckDomain(r Role, d Domain) Decision {
	switch d {
	case DomainPublic:
		return allow()

	case DomainApp:
		if r.AtLeast(RoleMember) {
			return allow()
		}
		if r == RoleOps {
			// Operators work through the ops domain, not the app.
			return deny(DenyForbidden, "operators cannot use the app domain")
		}
		return deny(DenyUnauthenticated, "sign-in required")

	case DomainAdmin:
		if r.AtLeast(RoleAdmin) {
			return allow()
		}
		if r == RoleNone {
			return deny(DenyUnauthenticated, "sign-in required")
		}
		return deny(DenyForbidden, "admin access required")

	case DomainOps:
		if r == RoleOps {
			return allow()
		}
		// Never a 403 and never a login redirect: unauthorized callers
		// must not learn that the ops surface exists.
		return deny(DenyNotFound, "not found")
	}

	return deny(DenyNotFound, "unknown domain")
}

// CheckAction is the finer-grained check layered on top of CheckDomain for
// actions that require a specific role within an already-admitted domain.
// Ownership transfer, freeze/unfreeze, archive and plan changes pass
// RoleOwner here; an admin clears the domain check but is denied the action.
func CheckAction(r Role, required Role) Decision {
	if r.AtLeast(required) {
		return allow()
	}
	if r == RoleNone {
		return deny(DenyUnauthenticated, "sign-in required")
	}
	return deny(DenyForbidden, required.String()+" role required")
}
