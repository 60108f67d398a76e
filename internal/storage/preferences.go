// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// The active-org preference is a durable per-user key-value slot with
// last-write-wins semantics. Readers must not assume they see writes made
// from other tabs or sessions opened before the write.

func (s *Storage) GetActiveOrg(ctx context.Context, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetActiveOrg")
	defer span.End()

	var orgID string
	err := s.db.Statement(ctx).
		Select("org_id").
		From("user_org_preferences").
		Where(sq.Eq{"user_id": userID}).
		QueryRowContext(ctx).
		Scan(&orgID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get active org preference: %w", err)
	}

	return orgID, nil
}

func (s *Storage) SetActiveOrg(ctx context.Context, userID, orgID string) error {
	ctx, span := s.tracer.Start(ctx, "storage.SetActiveOrg")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Insert("user_org_preferences").
		Columns("user_id", "org_id").
		Values(userID, orgID).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET org_id = EXCLUDED.org_id, updated_at = now()").
		ExecContext(ctx)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to set active org preference: %w", err)
	}

	return nil
}
