// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"

	"github.com/canonical/org-shell/internal/authorization"
)

type Organization struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Slug       string     `db:"slug" json:"slug"`
	Plan       string     `db:"plan" json:"plan"`
	Enabled    bool       `db:"enabled" json:"enabled"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type Membership struct {
	ID        string             `db:"id" json:"id"`
	OrgID     string             `db:"org_id" json:"org_id"`
	UserID    string             `db:"user_id" json:"user_id"`
	Role      authorization.Role `db:"role" json:"role"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// OrgContext is the organization resolved for a request, together with the
// caller's role in it.
type OrgContext struct {
	ID   string             `json:"id"`
	Name string             `json:"name"`
	Slug string             `json:"slug"`
	Role authorization.Role `json:"role"`
}

// AuditEntry is immutable once written. UserID is nil only for operator
// actions performed outside a tenant-scoped session.
type AuditEntry struct {
	ID        string         `db:"id" json:"id"`
	OrgID     string         `db:"org_id" json:"org_id"`
	UserID    *string        `db:"user_id" json:"user_id"`
	Action    string         `db:"action" json:"action"`
	Payload   map[string]any `db:"payload" json:"payload"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
