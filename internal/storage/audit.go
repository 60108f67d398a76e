// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/org-shell/internal/types"
)

// The audit log is append-only. There is deliberately no update or delete
// method here, and the audit_log_protect trigger rejects UPDATE and DELETE
// at the database so even a compromised caller cannot rewrite history.

func (s *Storage) AppendAuditEntry(ctx context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.AppendAuditEntry")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate audit entry ID: %w", err)
	}

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}

	var created types.AuditEntry
	var rawPayload []byte
	err = s.db.Statement(ctx).
		Insert("audit_log").
		Columns("id", "org_id", "user_id", "action", "payload").
		Values(id.String(), e.OrgID, e.UserID, e.Action, payload).
		Suffix("RETURNING id, org_id, user_id, action, payload, created_at").
		QueryRowContext(ctx).
		Scan(&created.ID, &created.OrgID, &created.UserID, &created.Action, &rawPayload, &created.CreatedAt)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := json.Unmarshal(rawPayload, &created.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode audit payload: %w", err)
	}

	return &created, nil
}

func (s *Storage) ListAuditEntriesByOrgID(ctx context.Context, orgID string, offset, limit uint64) ([]*types.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListAuditEntriesByOrgID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id", "org_id", "user_id", "action", "payload", "created_at").
		From("audit_log").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("created_at DESC").
		Offset(offset).
		Limit(limit).
		QueryContext(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		var rawPayload []byte
		if err := rows.Scan(&e.ID, &e.OrgID, &e.UserID, &e.Action, &rawPayload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(rawPayload, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode audit payload: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
