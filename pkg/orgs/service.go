// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package orgs implements organization resolution and the privileged action
// executor. Every executor action follows the same shape: validate inputs,
// authorize against the role policy, mutate state, append exactly one audit
// entry, return a structured result. No action ever redirects; navigation is
// the caller's business.
package orgs

import (
	"context"
	"errors"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) ListUserOrganizations(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ListUserOrganizations")
	defer span.End()

	if userID == "" {
		return nil, ErrAuthenticationRequired
	}

	orgs, err := s.storage.ListOrganizationsByUserID(ctx, userID)
	if err != nil {
		s.logger.Errorf("failed to list organizations: %v", err)
		return nil, ErrStorageFailure
	}

	return orgs, nil
}

func (s *Service) ListMembers(ctx context.Context, orgID, actorID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ListMembers")
	defer span.End()

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleMember); err != nil {
		return nil, err
	}

	members, err := s.storage.ListMembersByOrgID(ctx, orgID)
	if err != nil {
		s.logger.Errorf("failed to list members: %v", err)
		return nil, ErrStorageFailure
	}

	return members, nil
}

// TransferOwnership moves the owner role from the acting owner to an
// existing member. The store offers no cross-row transaction, so this runs
// as a two-step saga: downgrade the current owner first, then promote the
// target. That order keeps the failure window on the zero-owner side, which
// the compensation step closes, rather than ever having two owners. The
// downgrade is guarded on the actor still holding the owner role, so of two
// concurrent transfers exactly one proceeds.
func (s *Service) TransferOwnership(ctx context.Context, orgID, actorID, targetID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.TransferOwnership")
	defer span.End()

	if targetID == "" {
		return nil, validationErr("target_user_id", "target user is required")
	}
	if targetID == actorID {
		return nil, validationErr("target_user_id", "target is already the owner")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleOwner); err != nil {
		return nil, err
	}

	target, err := s.storage.GetMembership(ctx, orgID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, validationErr("target_user_id", "target user is not a member of this organization")
		}
		s.logger.Errorf("failed to load target membership: %v", err)
		return nil, ErrStorageFailure
	}

	// Step 1: downgrade the current owner, guarded on them still being
	// the owner.
	downgraded, err := s.storage.UpdateMemberRoleIf(ctx, orgID, actorID, authorization.RoleOwner, authorization.RoleAdmin)
	if err != nil {
		s.logger.Errorf("ownership transfer downgrade failed: %v", err)
		return nil, ErrStorageFailure
	}
	if !downgraded {
		// A concurrent transfer won, or our view was stale.
		return nil, ErrStateConflict
	}

	// Step 2: promote the target, guarded on the role we observed.
	promoted, err := s.storage.UpdateMemberRoleIf(ctx, orgID, targetID, target.Role, authorization.RoleOwner)
	if err != nil || !promoted {
		if err != nil {
			s.logger.Errorf("ownership transfer promotion failed: %v", err)
		}
		s.compensateTransfer(ctx, orgID, actorID)
		if err != nil {
			return nil, ErrStorageFailure
		}
		return nil, ErrStateConflict
	}

	if err := s.audit(ctx, orgID, &actorID, ActionOwnershipTransferred, map[string]any{
		"from_user_id": actorID,
		"to_user_id":   targetID,
	}); err != nil {
		return nil, err
	}

	s.logger.Security().PrivilegedAction(actorID, orgID, ActionOwnershipTransferred)
	return ok(), nil
}

// compensateTransfer restores the original owner after a failed promotion.
// If the compensation itself fails the organization is momentarily
// ownerless; that is logged loudly and repaired by the next successful
// transfer, never papered over.
func (s *Service) compensateTransfer(ctx context.Context, orgID, ownerID string) {
	restored, err := s.storage.UpdateMemberRoleIf(ctx, orgID, ownerID, authorization.RoleAdmin, authorization.RoleOwner)
	if err != nil {
		s.logger.Errorf("ownership transfer compensation failed for org %s: %v", orgID, err)
		return
	}
	if !restored {
		s.logger.Errorf("ownership transfer compensation found no admin row to restore for org %s", orgID)
	}
}

// Freeze disables the organization. It is idempotent in effect, but every
// invocation writes its own audit entry regardless of the prior state.
func (s *Service) Freeze(ctx context.Context, orgID, actorID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.Freeze")
	defer span.End()

	return s.setEnabled(ctx, orgID, actorID, false, ActionOrganizationFrozen)
}

func (s *Service) Unfreeze(ctx context.Context, orgID, actorID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.Unfreeze")
	defer span.End()

	return s.setEnabled(ctx, orgID, actorID, true, ActionOrganizationUnfrozen)
}

func (s *Service) setEnabled(ctx context.Context, orgID, actorID string, enabled bool, action string) (*Result, error) {
	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleOwner); err != nil {
		return nil, err
	}

	org, err := s.getOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetOrganizationEnabled(ctx, orgID, enabled); err != nil {
		s.logger.Errorf("failed to update enabled flag: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, action, map[string]any{
		"previously_enabled": org.Enabled,
	}); err != nil {
		return nil, err
	}

	s.logger.Security().PrivilegedAction(actorID, orgID, action)
	return ok(), nil
}

// Archive permanently retires the organization. The caller must re-type the
// exact display name; any difference, including whitespace, is a validation
// failure that mutates nothing and writes no audit entry.
func (s *Service) Archive(ctx context.Context, orgID, actorID, confirmName string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.Archive")
	defer span.End()

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleOwner); err != nil {
		return nil, err
	}

	org, err := s.getOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if confirmName != org.Name {
		return nil, validationErr("confirm_name", "confirmation does not match the organization name")
	}

	if err := s.storage.ArchiveOrganization(ctx, orgID); err != nil {
		s.logger.Errorf("failed to archive organization: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionOrganizationArchived, map[string]any{
		"name": org.Name,
	}); err != nil {
		return nil, err
	}

	s.logger.Security().PrivilegedAction(actorID, orgID, ActionOrganizationArchived)
	return okNavigate("/"), nil
}

func (s *Service) Rename(ctx context.Context, orgID, actorID, name string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.Rename")
	defer span.End()

	if name == "" {
		return nil, validationErr("name", "name is required")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleAdmin); err != nil {
		return nil, err
	}

	org, err := s.getOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.RenameOrganization(ctx, orgID, name); err != nil {
		s.logger.Errorf("failed to rename organization: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionOrganizationRenamed, map[string]any{
		"from": org.Name,
		"to":   name,
	}); err != nil {
		return nil, err
	}

	return ok(), nil
}

func (s *Service) ChangePlan(ctx context.Context, orgID, actorID, plan string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ChangePlan")
	defer span.End()

	if plan == "" {
		return nil, validationErr("plan", "plan is required")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleOwner); err != nil {
		return nil, err
	}

	org, err := s.getOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetOrganizationPlan(ctx, orgID, plan); err != nil {
		s.logger.Errorf("failed to change plan: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionPlanChanged, map[string]any{
		"from": org.Plan,
		"to":   plan,
	}); err != nil {
		return nil, err
	}

	s.logger.Security().PrivilegedAction(actorID, orgID, ActionPlanChanged)
	return ok(), nil
}

// InviteMember adds a user with role member or admin. The owner role is
// never granted through invitation; it only moves via TransferOwnership.
func (s *Service) InviteMember(ctx context.Context, orgID, actorID, userID string, role authorization.Role) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.InviteMember")
	defer span.End()

	if userID == "" {
		return nil, validationErr("user_id", "user is required")
	}
	if role != authorization.RoleMember && role != authorization.RoleAdmin {
		return nil, validationErr("role", "role must be member or admin")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleAdmin); err != nil {
		return nil, err
	}

	if _, err := s.storage.AddMember(ctx, orgID, userID, role); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrStateConflict
		}
		s.logger.Errorf("failed to add member: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionMemberInvited, map[string]any{
		"user_id": userID,
		"role":    role.String(),
	}); err != nil {
		return nil, err
	}

	return ok(), nil
}

// UpdateMemberRole changes a member's role between member and admin. The
// owner is protected: their role can never be changed here, whatever the
// caller's own role, and no one can be promoted to owner outside the
// transfer protocol.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, actorID, userID string, role authorization.Role) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.UpdateMemberRole")
	defer span.End()

	if role != authorization.RoleMember && role != authorization.RoleAdmin {
		return nil, validationErr("role", "role must be member or admin")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := s.storage.GetMembership(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, validationErr("user_id", "user is not a member of this organization")
		}
		s.logger.Errorf("failed to load membership: %v", err)
		return nil, ErrStorageFailure
	}

	if target.Role == authorization.RoleOwner {
		return nil, ErrStateConflict
	}

	if err := s.storage.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
		s.logger.Errorf("failed to update member role: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionMemberRoleUpdated, map[string]any{
		"user_id": userID,
		"from":    target.Role.String(),
		"to":      role.String(),
	}); err != nil {
		return nil, err
	}

	return ok(), nil
}

// RemoveMember deletes a membership. The owner can never be removed; the
// ownership must be transferred away first.
func (s *Service) RemoveMember(ctx context.Context, orgID, actorID, userID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.RemoveMember")
	defer span.End()

	if userID == "" {
		return nil, validationErr("user_id", "user is required")
	}

	if _, err := s.authorize(ctx, orgID, actorID, authorization.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := s.storage.GetMembership(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, validationErr("user_id", "user is not a member of this organization")
		}
		s.logger.Errorf("failed to load membership: %v", err)
		return nil, ErrStorageFailure
	}

	if target.Role == authorization.RoleOwner {
		return nil, ErrStateConflict
	}

	if err := s.storage.RemoveMember(ctx, orgID, userID); err != nil {
		s.logger.Errorf("failed to remove member: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionMemberRemoved, map[string]any{
		"user_id": userID,
		"role":    target.Role.String(),
	}); err != nil {
		return nil, err
	}

	return ok(), nil
}

// CreateOrganization provisions a tenant with exactly one initial owner.
// actorID is nil when the action originates outside a tenant-scoped session,
// such as identity-provider registration hooks; an authenticated operator
// passes their own id. If adding the owner fails the organization row is
// compensated away so no ownerless tenant is left behind.
func (s *Service) CreateOrganization(ctx context.Context, actorID *string, name, slug, plan, ownerID string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.CreateOrganization")
	defer span.End()

	if name == "" {
		return nil, validationErr("name", "name is required")
	}
	if slug == "" {
		return nil, validationErr("slug", "slug is required")
	}
	if ownerID == "" {
		return nil, validationErr("owner_id", "initial owner is required")
	}
	if plan == "" {
		plan = "free"
	}

	if actorID != nil {
		operator, err := s.IsOperator(ctx, *actorID)
		if err != nil {
			s.logger.Errorf("failed to check operator role: %v", err)
			return nil, ErrStorageFailure
		}
		if !operator {
			return nil, ErrAuthorizationDenied
		}
	}

	org, err := s.storage.CreateOrganization(ctx, &types.Organization{
		Name:    name,
		Slug:    slug,
		Plan:    plan,
		Enabled: true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, validationErr("slug", "slug is already taken")
		}
		s.logger.Errorf("failed to create organization: %v", err)
		return nil, ErrStorageFailure
	}

	if _, err := s.storage.AddMember(ctx, org.ID, ownerID, authorization.RoleOwner); err != nil {
		s.logger.Errorf("failed to add initial owner: %v", err)
		if derr := s.storage.DeleteOrganization(ctx, org.ID); derr != nil {
			s.logger.Errorf("failed to compensate organization creation for %s: %v", org.ID, derr)
		}
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, org.ID, actorID, ActionOrganizationCreated, map[string]any{
		"name":     name,
		"slug":     slug,
		"plan":     plan,
		"owner_id": ownerID,
	}); err != nil {
		return nil, err
	}

	return org, nil
}

// DeleteOrganization hard-deletes a tenant. Only allowed once every
// membership is gone.
func (s *Service) DeleteOrganization(ctx context.Context, actorID, orgID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.DeleteOrganization")
	defer span.End()

	operator, err := s.IsOperator(ctx, actorID)
	if err != nil {
		s.logger.Errorf("failed to check operator role: %v", err)
		return nil, ErrStorageFailure
	}
	if !operator {
		return nil, ErrAuthorizationDenied
	}

	count, err := s.storage.CountMembers(ctx, orgID)
	if err != nil {
		s.logger.Errorf("failed to count members: %v", err)
		return nil, ErrStorageFailure
	}
	if count > 0 {
		return nil, ErrStateConflict
	}

	if err := s.storage.DeleteOrganization(ctx, orgID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to delete organization: %v", err)
		return nil, ErrStorageFailure
	}

	if err := s.audit(ctx, orgID, &actorID, ActionOrganizationDeleted, nil); err != nil {
		return nil, err
	}

	s.logger.Security().PrivilegedAction(actorID, orgID, ActionOrganizationDeleted)
	return ok(), nil
}

func (s *Service) ListAllOrganizations(ctx context.Context, actorID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ListAllOrganizations")
	defer span.End()

	operator, err := s.IsOperator(ctx, actorID)
	if err != nil {
		s.logger.Errorf("failed to check operator role: %v", err)
		return nil, ErrStorageFailure
	}
	if !operator {
		return nil, ErrAuthorizationDenied
	}

	orgs, err := s.storage.ListOrganizations(ctx)
	if err != nil {
		s.logger.Errorf("failed to list organizations: %v", err)
		return nil, ErrStorageFailure
	}

	return orgs, nil
}

// authorize loads the actor's membership and applies the action-level role
// check. An actor with no membership gets ErrNotFound, the same outcome as
// a nonexistent organization.
func (s *Service) authorize(ctx context.Context, orgID, actorID string, required authorization.Role) (*types.Membership, error) {
	if actorID == "" {
		return nil, ErrAuthenticationRequired
	}

	m, err := s.storage.GetMembership(ctx, orgID, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to load actor membership: %v", err)
		return nil, ErrStorageFailure
	}

	if d := authorization.CheckAction(m.Role, required); d.Verdict != authorization.Allow {
		s.logger.Security().AuthzFailure(actorID, required.String()+"_required")
		return nil, ErrAuthorizationDenied
	}

	return m, nil
}

// audit appends the single audit entry for a completed mutation. It runs
// after the state change and before success is reported; a failure here is
// surfaced as a storage failure even though the mutation stands, so the
// caller retries and the gap is visible rather than silent.
func (s *Service) audit(ctx context.Context, orgID string, userID *string, action string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}

	_, err := s.storage.AppendAuditEntry(ctx, &types.AuditEntry{
		OrgID:   orgID,
		UserID:  userID,
		Action:  action,
		Payload: payload,
	})
	if err != nil {
		s.logger.Errorf("failed to append audit entry for %s on org %s: %v", action, orgID, err)
		return ErrStorageFailure
	}

	return nil
}

func (s *Service) getOrganization(ctx context.Context, orgID string) (*types.Organization, error) {
	org, err := s.storage.GetOrganizationByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to load organization: %v", err)
		return nil, ErrStorageFailure
	}
	return org, nil
}
