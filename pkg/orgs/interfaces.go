// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/types"
)

type ServiceInterface interface {
	ResolveOrg(ctx context.Context, userID, slug string) (*types.OrgContext, error)
	IsOperator(ctx context.Context, userID string) (bool, error)
	ListUserOrganizations(ctx context.Context, userID string) ([]*types.Organization, error)
	SwitchActiveOrg(ctx context.Context, userID, slug string) (*Result, error)
	ListMembers(ctx context.Context, orgID, actorID string) ([]*types.Membership, error)

	TransferOwnership(ctx context.Context, orgID, actorID, targetID string) (*Result, error)
	Freeze(ctx context.Context, orgID, actorID string) (*Result, error)
	Unfreeze(ctx context.Context, orgID, actorID string) (*Result, error)
	Archive(ctx context.Context, orgID, actorID, confirmName string) (*Result, error)
	Rename(ctx context.Context, orgID, actorID, name string) (*Result, error)
	ChangePlan(ctx context.Context, orgID, actorID, plan string) (*Result, error)
	InviteMember(ctx context.Context, orgID, actorID, userID string, role authorization.Role) (*Result, error)
	UpdateMemberRole(ctx context.Context, orgID, actorID, userID string, role authorization.Role) (*Result, error)
	RemoveMember(ctx context.Context, orgID, actorID, userID string) (*Result, error)

	CreateOrganization(ctx context.Context, actorID *string, name, slug, plan, ownerID string) (*types.Organization, error)
	DeleteOrganization(ctx context.Context, actorID, orgID string) (*Result, error)
	ListAllOrganizations(ctx context.Context, actorID string) ([]*types.Organization, error)
}

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
	UpdateMemberRoleIf(ctx context.Context, orgID, userID string, from, to authorization.Role) (bool, error)
	RemoveMember(ctx context.Context, orgID, userID string) error
	HasOperatorRole(ctx context.Context, userID string) (bool, error)

	GetActiveOrg(ctx context.Context, userID string) (string, error)
	SetActiveOrg(ctx context.Context, userID, orgID string) error

	AppendAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error)
}
