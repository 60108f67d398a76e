// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"
	"errors"

	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/types"
)

// ResolveOrg resolves the organization context for a request. An explicit
// slug (from a query parameter, path segment or tenant subdomain) is
// resolved independently of the stored active-org preference, so two tabs
// pointed at different organizations never interfere. Only the no-slug path
// reads the shared preference.
//
// A slug that does not exist and a slug the caller is not a member of both
// come back as ErrNotFound; the caller must not be able to tell them apart.
func (s *Service) ResolveOrg(ctx context.Context, userID, slug string) (*types.OrgContext, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.ResolveOrg")
	defer span.End()

	if userID == "" {
		return nil, ErrAuthenticationRequired
	}

	if slug != "" {
		return s.resolveBySlug(ctx, userID, slug)
	}

	orgID, err := s.storage.GetActiveOrg(ctx, userID)
	if err != nil {
		s.logger.Errorf("failed to read active org preference: %v", err)
		return nil, ErrStorageFailure
	}
	if orgID == "" {
		return nil, ErrNoActiveOrg
	}

	org, err := s.storage.GetOrganizationByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The preferred org was deleted out from under the
			// preference; treat as unset.
			return nil, ErrNoActiveOrg
		}
		s.logger.Errorf("failed to load active org: %v", err)
		return nil, ErrStorageFailure
	}

	oc, err := s.contextForMember(ctx, userID, org)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The caller was removed from the preferred org; treat
			// as unset so the org-pick flow stays reachable.
			return nil, ErrNoActiveOrg
		}
		return nil, err
	}

	return oc, nil
}

func (s *Service) resolveBySlug(ctx context.Context, userID, slug string) (*types.OrgContext, error) {
	org, err := s.storage.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to look up org by slug: %v", err)
		return nil, ErrStorageFailure
	}

	return s.contextForMember(ctx, userID, org)
}

func (s *Service) contextForMember(ctx context.Context, userID string, org *types.Organization) (*types.OrgContext, error) {
	m, err := s.storage.GetMembership(ctx, org.ID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same outcome class as a nonexistent slug.
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to check membership: %v", err)
		return nil, ErrStorageFailure
	}

	return &types.OrgContext{
		ID:   org.ID,
		Name: org.Name,
		Slug: org.Slug,
		Role: m.Role,
	}, nil
}

// IsOperator reports whether the user holds an ops membership. The gate
// uses it for the ops domain check.
func (s *Service) IsOperator(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.IsOperator")
	defer span.End()

	if userID == "" {
		return false, nil
	}

	return s.storage.HasOperatorRole(ctx, userID)
}

// SwitchActiveOrg durably selects the caller's current organization. The
// membership check runs first so a user can never point their preference at
// an organization they do not belong to. Last write wins across tabs.
func (s *Service) SwitchActiveOrg(ctx context.Context, userID, slug string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "orgs.Service.SwitchActiveOrg")
	defer span.End()

	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	if slug == "" {
		return nil, validationErr("slug", "organization slug is required")
	}

	oc, err := s.resolveBySlug(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetActiveOrg(ctx, userID, oc.ID); err != nil {
		s.logger.Errorf("failed to set active org: %v", err)
		return nil, ErrStorageFailure
	}

	return okNavigate("/"), nil
}
