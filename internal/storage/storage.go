// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/db"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

const orgColumns = "id, name, slug, plan, enabled, archived_at, created_at"

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func (s *Storage) CreateOrganization(ctx context.Context, o *types.Organization) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateOrganization")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organization ID: %w", err)
	}

	var created types.Organization
	err = s.db.Statement(ctx).
		Insert("organizations").
		Columns("id", "name", "slug", "plan", "enabled").
		Values(id.String(), o.Name, o.Slug, o.Plan, o.Enabled).
		Suffix("RETURNING " + orgColumns).
		QueryRowContext(ctx).
		Scan(&created.ID, &created.Name, &created.Slug, &created.Plan, &created.Enabled, &created.ArchivedAt, &created.CreatedAt)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert organization: %w", err)
	}

	return &created, nil
}

func (s *Storage) GetOrganizationByID(ctx context.Context, id string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationByID")
	defer span.End()

	return s.getOrganization(ctx, sq.Eq{"id": id})
}

func (s *Storage) GetOrganizationBySlug(ctx context.Context, slug string) (*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetOrganizationBySlug")
	defer span.End()

	return s.getOrganization(ctx, sq.Eq{"slug": slug})
}

func (s *Storage) getOrganization(ctx context.Context, where sq.Eq) (*types.Organization, error) {
	var o types.Organization
	err := s.db.Statement(ctx).
		Select("id", "name", "slug", "plan", "enabled", "archived_at", "created_at").
		From("organizations").
		Where(where).
		QueryRowContext(ctx).
		Scan(&o.ID, &o.Name, &o.Slug, &o.Plan, &o.Enabled, &o.ArchivedAt, &o.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &o, nil
}

func (s *Storage) ListOrganizations(ctx context.Context) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizations")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("id", "name", "slug", "plan", "enabled", "archived_at", "created_at").
		From("organizations").
		OrderBy("created_at")

	return s.scanOrganizations(ctx, query)
}

func (s *Storage) ListOrganizationsByUserID(ctx context.Context, userID string) ([]*types.Organization, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListOrganizationsByUserID")
	defer span.End()

	query := s.db.Statement(ctx).
		Select("o.id", "o.name", "o.slug", "o.plan", "o.enabled", "o.archived_at", "o.created_at").
		From("organizations o").
		Join("memberships m ON o.id = m.org_id").
		Where(sq.Eq{"m.user_id": userID}).
		Where(sq.Eq{"o.archived_at": nil}).
		OrderBy("o.created_at")

	return s.scanOrganizations(ctx, query)
}

func (s *Storage) scanOrganizations(ctx context.Context, query sq.SelectBuilder) ([]*types.Organization, error) {
	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*types.Organization
	for rows.Next() {
		var o types.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.Plan, &o.Enabled, &o.ArchivedAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return orgs, nil
}

func (s *Storage) RenameOrganization(ctx context.Context, id, name string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RenameOrganization")
	defer span.End()

	return s.updateOrganization(ctx, id, map[string]interface{}{"name": name})
}

func (s *Storage) SetOrganizationEnabled(ctx context.Context, id string, enabled bool) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetOrganizationEnabled")
	defer span.End()

	return s.updateOrganization(ctx, id, map[string]interface{}{"enabled": enabled})
}

func (s *Storage) SetOrganizationPlan(ctx context.Context, id, plan string) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetOrganizationPlan")
	defer span.End()

	return s.updateOrganization(ctx, id, map[string]interface{}{"plan": plan})
}

func (s *Storage) ArchiveOrganization(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.ArchiveOrganization")
	defer span.End()

	return s.updateOrganization(ctx, id, map[string]interface{}{
		"enabled":     false,
		"archived_at": sq.Expr("now()"),
	})
}

func (s *Storage) updateOrganization(ctx context.Context, id string, set map[string]interface{}) error {
	res, err := s.db.Statement(ctx).
		Update("organizations").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteOrganization removes the organization row. The executor checks the
// member count first; the foreign key on memberships backs that check up.
func (s *Storage) DeleteOrganization(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteOrganization")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("organizations").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) AddMember(ctx context.Context, orgID, userID string, role authorization.Role) (string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.AddMember")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate membership ID: %w", err)
	}

	_, err = s.db.Statement(ctx).
		Insert("memberships").
		Columns("id", "org_id", "user_id", "role").
		Values(id.String(), orgID, userID, role.String()).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return "", ErrDuplicateKey
		}
		if IsForeignKeyViolation(err) {
			return "", ErrForeignKeyViolation
		}
		return "", fmt.Errorf("failed to add member: %w", err)
	}

	return id.String(), nil
}

func (s *Storage) GetMembership(ctx context.Context, orgID, userID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetMembership")
	defer span.End()

	var m types.Membership
	var role string
	err := s.db.Statement(ctx).
		Select("id", "org_id", "user_id", "role", "created_at").
		From("memberships").
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		QueryRowContext(ctx).
		Scan(&m.ID, &m.OrgID, &m.UserID, &role, &m.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	if m.Role, err = authorization.ParseRole(role); err != nil {
		return nil, fmt.Errorf("corrupt membership row: %w", err)
	}

	return &m, nil
}

func (s *Storage) ListMembersByOrgID(ctx context.Context, orgID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByOrgID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "org_id", "user_id", "role", "created_at").
		From("memberships").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("created_at").
		QueryContext(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*types.Membership
	for rows.Next() {
		var m types.Membership
		var role string
		if err := rows.Scan(&m.ID, &m.OrgID, &m.UserID, &role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if m.Role, err = authorization.ParseRole(role); err != nil {
			return nil, fmt.Errorf("corrupt membership row: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) CountMembers(ctx context.Context, orgID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountMembers")
	defer span.End()

	var count int64
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("memberships").
		Where(sq.Eq{"org_id": orgID}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return count, nil
}

func (s *Storage) UpdateMemberRole(ctx context.Context, orgID, userID string, role authorization.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRole")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("role", role.String()).
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) UpdateMemberRoleIf(ctx context.Context, orgID, userID string, from, to authorization.Role) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRoleIf")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("role", to.String()).
		Where(sq.Eq{
			"org_id":  orgID,
			"user_id": userID,
			"role":    from.String(),
		}).
		ExecContext(ctx)

	if err != nil {
		if IsDuplicateKeyError(err) {
			return false, ErrDuplicateKey
		}
		return false, fmt.Errorf("failed to update member role: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows == 1, nil
}

func (s *Storage) RemoveMember(ctx context.Context, orgID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoveMember")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("memberships").
		Where(sq.Eq{"org_id": orgID, "user_id": userID}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// HasOperatorRole reports whether the user holds an ops membership in any
// organization.
func (s *Storage) HasOperatorRole(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.HasOperatorRole")
	defer span.End()

	var count int64
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("memberships").
		Where(sq.Eq{"user_id": userID, "role": authorization.RoleOps.String()}).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check operator role: %w", err)
	}

	return count > 0, nil
}
