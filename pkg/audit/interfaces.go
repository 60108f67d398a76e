// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"

	"github.com/canonical/org-shell/internal/types"
)

type ServiceInterface interface {
	ListEntries(ctx context.Context, orgID, actorID string, offset, limit uint64) ([]*types.AuditEntry, error)
}

// StorageInterface is the read-only slice of storage this package consumes.
// There is deliberately no update or delete; the log is append-only and the
// append side lives with the executor.
type StorageInterface interface {
	GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error)
	ListAuditEntriesByOrgID(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditEntry, error)
}
