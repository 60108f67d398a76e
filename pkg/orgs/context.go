// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"

	"github.com/canonical/org-shell/internal/types"
)

type contextKey struct{}

var orgContextKey = contextKey{}

// WithOrgContext attaches the resolved organization context to the request
// context. The gate sets it once per request; handlers only read it.
func WithOrgContext(ctx context.Context, oc *types.OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey, oc)
}

// OrgContextFrom retrieves the organization context resolved for this
// request, if any.
func OrgContextFrom(ctx context.Context) (*types.OrgContext, bool) {
	oc, ok := ctx.Value(orgContextKey).(*types.OrgContext)
	return oc, ok && oc != nil
}
