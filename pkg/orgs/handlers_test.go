// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
	"github.com/canonical/org-shell/pkg/authentication"
)

func newTestAPI(service ServiceInterface) *chi.Mux {
	api := NewAPI(service, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
	mux := chi.NewMux()
	api.RegisterEndpoints(mux)
	return mux
}

func authedRequest(method, target, body, uid string, oc *types.OrgContext) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := authentication.WithUserID(context.Background(), uid)
	if oc != nil {
		ctx = WithOrgContext(ctx, oc)
	}
	return r.WithContext(ctx)
}

func TestAPI_TransferOwnership(t *testing.T) {
	oc := &types.OrgContext{ID: orgID, Slug: "acme", Role: authorization.RoleOwner}

	testCases := []struct {
		name           string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"target_user_id": "user-member"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().TransferOwnership(gomock.Any(), orgID, ownerID, userID).Return(ok(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing target is a bad request",
			body:           `{}`,
			setupMocks:     func(m *MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "insufficient role is forbidden",
			body: `{"target_user_id": "user-member"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().TransferOwnership(gomock.Any(), orgID, ownerID, userID).Return(nil, ErrAuthorizationDenied)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "concurrent transfer is a conflict",
			body: `{"target_user_id": "user-member"}`,
			setupMocks: func(m *MockServiceInterface) {
				m.EXPECT().TransferOwnership(gomock.Any(), orgID, ownerID, userID).Return(nil, ErrStateConflict)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tc.setupMocks(mockService)

			mux := newTestAPI(mockService)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, authedRequest(http.MethodPost, "/admin/api/v1/org/transfer-ownership", tc.body, ownerID, oc))

			if w.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAPI_AdminActionWithoutOrgContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockServiceInterface(ctrl)
	mux := newTestAPI(mockService)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/admin/api/v1/org/freeze", "", ownerID, nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}

	var resp struct {
		Data Result `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.NavigateTo == "" {
		t.Errorf("expected a navigation hint to the org picker, got %+v", resp.Data)
	}
}

// Ops endpoints never render 401 or 403; every denial is a 404.
func TestAPI_OpsFailuresRenderNotFound(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "unauthenticated", err: ErrAuthenticationRequired},
		{name: "not an operator", err: ErrAuthorizationDenied},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockService.EXPECT().ListAllOrganizations(gomock.Any(), gomock.Any()).Return(nil, tc.err)

			mux := newTestAPI(mockService)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, authedRequest(http.MethodGet, "/ops/api/v1/orgs", "", "user-x", nil))

			if w.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", w.Code)
			}
		})
	}
}

func TestAPI_SwitchOrg(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockServiceInterface(ctrl)
	mockService.EXPECT().SwitchActiveOrg(gomock.Any(), userID, "beta").Return(okNavigate("/"), nil)

	mux := newTestAPI(mockService)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(http.MethodPost, "/app/api/v1/orgs/switch", `{"slug": "beta"}`, userID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data Result `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.OK || resp.Data.NavigateTo != "/" {
		t.Errorf("unexpected result envelope: %+v", resp.Data)
	}
}
