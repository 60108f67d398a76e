// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"context"

	"github.com/canonical/org-shell/internal/types"
)

// ResolverInterface is the slice of the org service the gate consumes.
type ResolverInterface interface {
	ResolveOrg(ctx context.Context, userID, slug string) (*types.OrgContext, error)
	IsOperator(ctx context.Context, userID string) (bool, error)
}
