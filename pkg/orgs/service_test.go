// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

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
)

//go:generate mockgen -build_flags=--mod=mod -package orgs -destination ./mock_orgs.go -source=./interfaces.go

const (
	orgID   = "org-1"
	ownerID = "user-owner"
	adminID = "user-admin"
	userID  = "user-member"
)

func newTestService(s StorageInterface) *Service {
	return NewService(s, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
}

func membership(role authorization.Role, uid string) *types.Membership {
	return &types.Membership{ID: "m-" + uid, OrgID: orgID, UserID: uid, Role: role}
}

func TestService_TransferOwnership(t *testing.T) {
	dbErr := errors.New("connection reset")

	testCases := []struct {
		name        string
		actorID     string
		targetID    string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:     "success",
			actorID:  ownerID,
			targetID: userID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetMembership(gomock.Any(), orgID, userID).Return(membership(authorization.RoleMember, userID), nil)
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, ownerID, authorization.RoleOwner, authorization.RoleAdmin).Return(true, nil)
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, userID, authorization.RoleMember, authorization.RoleOwner).Return(true, nil)
				m.EXPECT().AppendAuditEntry(gomock.Any(), gomock.AssignableToTypeOf(&types.AuditEntry{})).DoAndReturn(
					func(_ context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
						if e.Action != ActionOwnershipTransferred {
							t.Errorf("expected action %q, got %q", ActionOwnershipTransferred, e.Action)
						}
						if e.Payload["from_user_id"] != ownerID || e.Payload["to_user_id"] != userID {
							t.Errorf("audit payload missing transfer endpoints: %v", e.Payload)
						}
						return e, nil
					},
				)
			},
		},
		{
			name:     "actor is not the owner",
			actorID:  adminID,
			targetID: userID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, adminID).Return(membership(authorization.RoleAdmin, adminID), nil)
			},
			expectedErr: ErrAuthorizationDenied,
		},
		{
			name:     "target is not a member",
			actorID:  ownerID,
			targetID: "user-stranger",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetMembership(gomock.Any(), orgID, "user-stranger").Return(nil, storage.ErrNotFound)
			},
			expectedErr: &ValidationError{},
		},
		{
			name:     "concurrent transfer wins the downgrade",
			actorID:  ownerID,
			targetID: userID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetMembership(gomock.Any(), orgID, userID).Return(membership(authorization.RoleMember, userID), nil)
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, ownerID, authorization.RoleOwner, authorization.RoleAdmin).Return(false, nil)
			},
			expectedErr: ErrStateConflict,
		},
		{
			name:     "promotion fails and the owner is restored",
			actorID:  ownerID,
			targetID: userID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetMembership(gomock.Any(), orgID, userID).Return(membership(authorization.RoleMember, userID), nil)
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, ownerID, authorization.RoleOwner, authorization.RoleAdmin).Return(true, nil)
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, userID, authorization.RoleMember, authorization.RoleOwner).Return(false, dbErr)
				// Compensation path.
				m.EXPECT().UpdateMemberRoleIf(gomock.Any(), orgID, ownerID, authorization.RoleAdmin, authorization.RoleOwner).Return(true, nil)
			},
			expectedErr: ErrStorageFailure,
		},
		{
			name:        "target equals actor",
			actorID:     ownerID,
			targetID:    ownerID,
			setupMocks:  func(m *MockStorageInterface) {},
			expectedErr: &ValidationError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage)

			result, err := s.TransferOwnership(context.Background(), orgID, tc.actorID, tc.targetID)

			if tc.expectedErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result == nil || !result.OK {
					t.Errorf("expected an OK result, got %+v", result)
				}
				return
			}

			var verr *ValidationError
			if errors.As(tc.expectedErr, &verr) {
				if !errors.As(err, &verr) {
					t.Errorf("expected a validation error, got %v", err)
				}
			} else if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestService_FreezeAlreadyFrozenStillAudits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
	mockStorage.EXPECT().GetOrganizationByID(gomock.Any(), orgID).Return(&types.Organization{ID: orgID, Name: "Acme", Enabled: false}, nil)
	mockStorage.EXPECT().SetOrganizationEnabled(gomock.Any(), orgID, false).Return(nil)
	mockStorage.EXPECT().AppendAuditEntry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
			if e.Action != ActionOrganizationFrozen {
				t.Errorf("expected action %q, got %q", ActionOrganizationFrozen, e.Action)
			}
			if e.Payload["previously_enabled"] != false {
				t.Errorf("expected previously_enabled=false in payload, got %v", e.Payload)
			}
			return e, nil
		},
	)

	s := newTestService(mockStorage)

	result, err := s.Freeze(context.Background(), orgID, ownerID)
	if err != nil {
		t.Fatalf("freezing a frozen org must succeed, got %v", err)
	}
	if !result.OK {
		t.Errorf("expected OK result, got %+v", result)
	}
}

func TestService_FreezeRequiresOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetMembership(gomock.Any(), orgID, adminID).Return(membership(authorization.RoleAdmin, adminID), nil)

	s := newTestService(mockStorage)

	if _, err := s.Freeze(context.Background(), orgID, adminID); !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("expected ErrAuthorizationDenied, got %v", err)
	}
}

func TestService_Archive(t *testing.T) {
	org := &types.Organization{ID: orgID, Name: "Acme Corp", Slug: "acme", Enabled: true}

	testCases := []struct {
		name        string
		confirm     string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:    "exact name archives",
			confirm: "Acme Corp",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetOrganizationByID(gomock.Any(), orgID).Return(org, nil)
				m.EXPECT().ArchiveOrganization(gomock.Any(), orgID).Return(nil)
				m.EXPECT().AppendAuditEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditEntry) (*types.AuditEntry, error) { return e, nil },
				)
			},
		},
		{
			name:    "trailing whitespace fails validation without mutating",
			confirm: "Acme Corp ",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetOrganizationByID(gomock.Any(), orgID).Return(org, nil)
				// No ArchiveOrganization, no AppendAuditEntry.
			},
			expectedErr: &ValidationError{},
		},
		{
			name:    "case mismatch fails validation",
			confirm: "acme corp",
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)
				m.EXPECT().GetOrganizationByID(gomock.Any(), orgID).Return(org, nil)
			},
			expectedErr: &ValidationError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage)

			_, err := s.Archive(context.Background(), orgID, ownerID, tc.confirm)

			if tc.expectedErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestService_OwnerIsProtected(t *testing.T) {
	testCases := []struct {
		name string
		call func(s *Service) error
	}{
		{
			name: "role update on the owner is rejected",
			call: func(s *Service) error {
				_, err := s.UpdateMemberRole(context.Background(), orgID, adminID, ownerID, authorization.RoleMember)
				return err
			},
		},
		{
			name: "removing the owner is rejected",
			call: func(s *Service) error {
				_, err := s.RemoveMember(context.Background(), orgID, adminID, ownerID)
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockStorage.EXPECT().GetMembership(gomock.Any(), orgID, adminID).Return(membership(authorization.RoleAdmin, adminID), nil)
			mockStorage.EXPECT().GetMembership(gomock.Any(), orgID, ownerID).Return(membership(authorization.RoleOwner, ownerID), nil)

			s := newTestService(mockStorage)

			if err := tc.call(s); !errors.Is(err, ErrStateConflict) {
				t.Errorf("expected ErrStateConflict, got %v", err)
			}
		})
	}
}

func TestService_InviteMemberRejectsOwnerRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	s := newTestService(mockStorage)

	_, err := s.InviteMember(context.Background(), orgID, adminID, "user-new", authorization.RoleOwner)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected a validation error for role=owner, got %v", err)
	}
}

func TestService_CreateOrganization(t *testing.T) {
	opID := "user-op"
	dbErr := errors.New("insert failed")

	testCases := []struct {
		name        string
		actorID     *string
		setupMocks  func(*MockStorageInterface)
		expectedErr error
	}{
		{
			name:    "operator creates an org with an initial owner",
			actorID: &opID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().HasOperatorRole(gomock.Any(), opID).Return(true, nil)
				m.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(&types.Organization{ID: orgID, Name: "Acme", Slug: "acme", Plan: "free", Enabled: true}, nil)
				m.EXPECT().AddMember(gomock.Any(), orgID, ownerID, authorization.RoleOwner).Return("m-1", nil)
				m.EXPECT().AppendAuditEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
						if e.UserID == nil || *e.UserID != opID {
							t.Errorf("expected audit user %q, got %v", opID, e.UserID)
						}
						return e, nil
					},
				)
			},
		},
		{
			name:    "unattributed creation audits a nil user",
			actorID: nil,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(&types.Organization{ID: orgID, Name: "Acme", Slug: "acme", Plan: "free", Enabled: true}, nil)
				m.EXPECT().AddMember(gomock.Any(), orgID, ownerID, authorization.RoleOwner).Return("m-1", nil)
				m.EXPECT().AppendAuditEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, e *types.AuditEntry) (*types.AuditEntry, error) {
						if e.UserID != nil {
							t.Errorf("expected nil audit user, got %v", *e.UserID)
						}
						return e, nil
					},
				)
			},
		},
		{
			name:    "non-operator is denied",
			actorID: &opID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().HasOperatorRole(gomock.Any(), opID).Return(false, nil)
			},
			expectedErr: ErrAuthorizationDenied,
		},
		{
			name:    "owner insert failure compensates the org row",
			actorID: &opID,
			setupMocks: func(m *MockStorageInterface) {
				m.EXPECT().HasOperatorRole(gomock.Any(), opID).Return(true, nil)
				m.EXPECT().CreateOrganization(gomock.Any(), gomock.Any()).Return(&types.Organization{ID: orgID, Name: "Acme", Slug: "acme", Plan: "free", Enabled: true}, nil)
				m.EXPECT().AddMember(gomock.Any(), orgID, ownerID, authorization.RoleOwner).Return("", dbErr)
				m.EXPECT().DeleteOrganization(gomock.Any(), orgID).Return(nil)
			},
			expectedErr: ErrStorageFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			tc.setupMocks(mockStorage)

			s := newTestService(mockStorage)

			org, err := s.CreateOrganization(context.Background(), tc.actorID, "Acme", "acme", "free", ownerID)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if org.ID != orgID {
				t.Errorf("expected org %q, got %q", orgID, org.ID)
			}
		})
	}
}

func TestService_DeleteOrganizationRequiresNoMembers(t *testing.T) {
	opID := "user-op"

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().HasOperatorRole(gomock.Any(), opID).Return(true, nil)
	mockStorage.EXPECT().CountMembers(gomock.Any(), orgID).Return(int64(2), nil)

	s := newTestService(mockStorage)

	if _, err := s.DeleteOrganization(context.Background(), opID, orgID); !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict while members remain, got %v", err)
	}
}
