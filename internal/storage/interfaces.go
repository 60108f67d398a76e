// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/types"
)

type StorageInterface interface {
	CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error)
	GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*types.Organization, error)
	ListOrganizations(ctx context.Context) ([]*types.Organization, error)
	ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error)
	RenameOrganization(ctx context.Context, id, name string) error
	SetOrganizationEnabled(ctx context.Context, id string, enabled bool) error
	SetOrganizationPlan(ctx context.Context, id, plan string) error
	ArchiveOrganization(ctx context.Context, id string) error
	DeleteOrganization(ctx context.Context, id string) error

	AddMember(ctx context.Context, orgID, userID string, role authorization.Role) (string, error)
	GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error)
	ListMembersByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error)
	CountMembers(ctx context.Context, orgID string) (int64, error)
	UpdateMemberRole(ctx context.Context, orgID, userID string, role authorization.Role) error
	// UpdateMemberRoleIf updates the member's role only when the current role
	// matches from, reporting whether a row changed. The ownership transfer
	// saga uses it as its optimistic guard.
	UpdateMemberRoleIf(ctx context.Context, orgID, userID string, from, to authorization.Role) (bool, error)
	RemoveMember(ctx context.Context, orgID, userID string) error
	HasOperatorRole(ctx context.Context, userID string) (bool, error)

	GetActiveOrg(ctx context.Context, userID string) (string, error)
	SetActiveOrg(ctx context.Context, userID, orgID string) error

	AppendAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error)
	ListAuditEntriesByOrgID(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditEntry, error)
}
