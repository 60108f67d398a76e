// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package audit exposes the read side of the audit log to the admin
// domain. Appends happen exclusively in the executor; this package can
// only list.
package audit

import (
	"context"
	"errors"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
	"github.com/canonical/org-shell/pkg/orgs"
)

const defaultPageSize = 50

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

// ListEntries returns the org's audit trail, newest first. Reading the
// trail requires at least the admin role in the organization.
func (s *Service) ListEntries(ctx context.Context, orgID, actorID string, offset, limit uint64) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Service.ListEntries")
	defer span.End()

	if actorID == "" {
		return nil, orgs.ErrAuthenticationRequired
	}

	m, err := s.storage.GetMembership(ctx, orgID, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, orgs.ErrNotFound
		}
		s.logger.Errorf("failed to load actor membership: %v", err)
		return nil, orgs.ErrStorageFailure
	}

	if d := authorization.CheckAction(m.Role, authorization.RoleAdmin); d.Verdict != authorization.Allow {
		return nil, orgs.ErrAuthorizationDenied
	}

	if limit == 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}

	entries, err := s.storage.ListAuditEntriesByOrgID(ctx, orgID, offset, limit)
	if err != nil {
		s.logger.Errorf("failed to list audit entries: %v", err)
		return nil, orgs.ErrStorageFailure
	}

	return entries, nil
}
