// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
	"github.com/canonical/org-shell/pkg/orgs"
)

//go:generate mockgen -build_flags=--mod=mod -package audit -destination ./mock_audit.go -source=./interfaces.go

func TestService_ListEntries(t *testing.T) {
	orgID := "org-1"
	entries := []*types.AuditEntry{
		{ID: "a-2", OrgID: orgID, Action: "organization_frozen"},
		{ID: "a-1", OrgID: orgID, Action: "ownership_transferred"},
	}

	testCases := []struct {
		name        string
		actorID     string
		setupMocks  func(*MockStorageInterface)
		expectedLen int
		expectedErr error
	}{
		{
			name:    "admin reads the trail",
			actorID: "user-admin",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, "user-admin").Return(&types.Membership{Role: authorization.RoleAdmin}, nil)
				m.EXPECT().ListAuditEntriesByOrgID(gomock.Any(), orgID, uint64(0), uint64(defaultPageSize)).Return(entries, nil)
			},
			expectedLen: 2,
		},
		{
			name:    "member is denied",
			actorID: "user-member",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, "user-member").Return(&types.Membership{Role: authorization.RoleMember}, nil)
			},
			expectedErr: orgs.ErrAuthorizationDenied,
		},
		{
			name:    "non-member is not found",
			actorID: "user-stranger",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, "user-stranger").Return(nil, storage.ErrNotFound)
			},
			expectedErr: orgs.ErrNotFound,
		},
		{
			name:        "unauthenticated",
			actorID:     "",
			setupMocks:  func(m *MockStorageInterface) {},
			expectedErr: orgs.ErrAuthenticationRequired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := NewService(mockStorage, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())

			got, err := s.ListEntries(context.Background(), orgID, tc.actorID, 0, 0)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.expectedLen {
				t.Errorf("expected %d entries, got %d", tc.expectedLen, len(got))
			}
		})
	}
}
