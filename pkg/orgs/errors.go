// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"errors"
	"fmt"
)

// The error taxonomy every privileged action resolves to. Handlers map these
// to status codes; nothing else crosses the service boundary.
var (
	// ErrAuthenticationRequired means no subject could be resolved.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied means the subject's role is insufficient.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrNotFound covers both a missing organization and a caller who is
	// not a member of it. The two are deliberately indistinguishable so
	// callers cannot probe for organizations they do not belong to.
	ErrNotFound = errors.New("organization not found")
	// ErrNoActiveOrg means no explicit slug was given and the caller has
	// no stored active organization; they must pick one.
	ErrNoActiveOrg = errors.New("no active organization selected")
	// ErrStateConflict means the requested transition would violate an
	// invariant, such as the single-owner rule.
	ErrStateConflict = errors.New("state conflict")
	// ErrStorageFailure is the opaque downstream failure surfaced to
	// callers. Detail goes to the log, never to the response.
	ErrStorageFailure = errors.New("storage failure")
)

// ValidationError is a bad input shape. It is decided before any mutation
// and never writes an audit entry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
