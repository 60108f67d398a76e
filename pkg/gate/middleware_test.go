// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/org-shell/internal/authorization"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
	"github.com/canonical/org-shell/pkg/authentication"
	"github.com/canonical/org-shell/pkg/orgs"
)

//go:generate mockgen -build_flags=--mod=mod -package gate -destination ./mock_gate.go -source=./interfaces.go

const loginURL = "https://login.example.com/sign-in"

// capture records what reached the inner handler after the gate.
type capture struct {
	called bool
	path   string
	oc     *types.OrgContext
}

func gatedHandler(resolver ResolverInterface) (http.Handler, *capture) {
	c := &capture{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.path = r.URL.Path
		c.oc, _ = orgs.OrgContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	m := NewMiddleware(resolver, loginURL, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
	return m.Gate()(inner), c
}

func request(host, target, uid string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Host = host
	if uid != "" {
		r = r.WithContext(authentication.WithUserID(context.Background(), uid))
	}
	return r
}

func TestGate_PublicPassesThroughUnauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, c := gatedHandler(NewMockResolverInterface(ctrl))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("example.com", "/pricing", ""))

	if !c.called {
		t.Fatal("expected pass-through on the public domain")
	}
	if c.path != "/public/pricing" {
		t.Errorf("expected rewrite to /public/pricing, got %q", c.path)
	}
}

func TestGate_AppRequiresAuthentication(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler, c := gatedHandler(NewMockResolverInterface(ctrl))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("app.example.com", "/dashboard?tab=2", ""))

	if c.called {
		t.Fatal("unauthenticated app request must not reach a handler")
	}
	if w.Code != http.StatusFound {
		t.Fatalf("expected a login redirect, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, loginURL+"?next=") {
		t.Errorf("expected redirect to login with a next parameter, got %q", loc)
	}
	if !strings.Contains(loc, "%2Fdashboard") {
		t.Errorf("expected the original path in the next parameter, got %q", loc)
	}
}

// A member on the admin domain is denied, and nothing is mutated or
// audited; the gate only routes.
func TestGate_MemberDeniedOnAdminDomain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().ResolveOrg(gomock.Any(), "user-1", "").Return(&types.OrgContext{ID: "org-1", Slug: "acme", Role: authorization.RoleMember}, nil)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("admin.example.com", "/settings", "user-1"))

	if c.called {
		t.Fatal("member must not reach admin handlers")
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestGate_AdminAllowedOnAdminDomain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().ResolveOrg(gomock.Any(), "user-1", "").Return(&types.OrgContext{ID: "org-1", Slug: "acme", Role: authorization.RoleAdmin}, nil)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("admin.example.com", "/settings", "user-1"))

	if !c.called {
		t.Fatal("admin must reach admin handlers")
	}
	if c.path != "/admin/settings" {
		t.Errorf("expected rewrite to /admin/settings, got %q", c.path)
	}
	if c.oc == nil || c.oc.ID != "org-1" {
		t.Errorf("expected org context on the request, got %+v", c.oc)
	}
}

// The ops domain is undiscoverable: unauthenticated callers and
// authenticated non-operators get byte-for-byte the same not-found.
func TestGate_OpsDomainIsUndiscoverable(t *testing.T) {
	responses := make([]*httptest.ResponseRecorder, 0, 2)

	for _, tc := range []struct {
		name string
		uid  string
	}{
		{name: "unauthenticated", uid: ""},
		{name: "authenticated non-operator", uid: "user-1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			resolver := NewMockResolverInterface(ctrl)
			if tc.uid != "" {
				resolver.EXPECT().IsOperator(gomock.Any(), tc.uid).Return(false, nil)
			}

			handler, c := gatedHandler(resolver)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, request("ops.example.com", "/console", tc.uid))

			if c.called {
				t.Fatal("denied ops request must not reach a handler")
			}
			if w.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", w.Code)
			}
			responses = append(responses, w)
		})
	}

	if len(responses) == 2 && responses[0].Body.String() != responses[1].Body.String() {
		t.Errorf("ops denials must be indistinguishable: %q vs %q", responses[0].Body.String(), responses[1].Body.String())
	}
}

func TestGate_OperatorEntersOpsDomain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().IsOperator(gomock.Any(), "user-op").Return(true, nil)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("ops.example.com", "/console", "user-op"))

	if !c.called {
		t.Fatal("operator must reach ops handlers")
	}
	if c.path != "/ops/console" {
		t.Errorf("expected rewrite to /ops/console, got %q", c.path)
	}
}

func TestGate_TenantSubdomainSelectsOrg(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().ResolveOrg(gomock.Any(), "user-1", "acme").Return(&types.OrgContext{ID: "org-1", Slug: "acme", Role: authorization.RoleMember}, nil)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("acme.app.example.com", "/dashboard", "user-1"))

	if !c.called {
		t.Fatal("member must reach app handlers via tenant subdomain")
	}
	if c.oc == nil || c.oc.Slug != "acme" {
		t.Errorf("expected acme org context, got %+v", c.oc)
	}
}

func TestGate_UnknownSlugIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().ResolveOrg(gomock.Any(), "user-1", "zzz").Return(nil, orgs.ErrNotFound)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("zzz.app.example.com", "/dashboard", "user-1"))

	if c.called {
		t.Fatal("unresolvable org must not reach a handler")
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGate_NoActiveOrgStillEntersApp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := NewMockResolverInterface(ctrl)
	resolver.EXPECT().ResolveOrg(gomock.Any(), "user-1", "").Return(nil, orgs.ErrNoActiveOrg)

	handler, c := gatedHandler(resolver)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("app.example.com", "/", "user-1"))

	if !c.called {
		t.Fatal("a caller with no active org must still reach the app to pick one")
	}
	if c.oc != nil {
		t.Errorf("expected no org context, got %+v", c.oc)
	}
}

func TestGate_BypassSkipsClassification(t *testing.T) {
	for _, target := range []string{"/api/v1/status", "/api/v1/version", "/api/v1/metrics"} {
		t.Run(target, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No resolver expectations: bypassed paths must not resolve
			// anything.
			handler, c := gatedHandler(NewMockResolverInterface(ctrl))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, request("app.example.com", target, ""))

			if !c.called {
				t.Fatal("infra endpoint must pass through on every domain")
			}
			if c.path != target {
				t.Errorf("bypassed path must not be rewritten, got %q", c.path)
			}
		})
	}
}

// Exercises the gate over the real resolver: a stale active-org preference
// (the caller was removed from the org it points at) must degrade to the
// org-pick pass-through, not a 404 that would make the switch endpoint
// unreachable.
func TestGate_StaleActiveOrgPreferenceStillEntersApp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := orgs.NewMockStorageInterface(ctrl)
	mockStorage.EXPECT().GetActiveOrg(gomock.Any(), "user-1").Return("org-1", nil)
	mockStorage.EXPECT().GetOrganizationByID(gomock.Any(), "org-1").Return(&types.Organization{ID: "org-1", Name: "Acme", Slug: "acme", Enabled: true}, nil)
	mockStorage.EXPECT().GetMembership(gomock.Any(), "org-1", "user-1").Return(nil, storage.ErrNotFound)

	service := orgs.NewService(mockStorage, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test"), logging.NewNoopLogger())
	handler, c := gatedHandler(service)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request("app.example.com", "/", "user-1"))

	if !c.called {
		t.Fatalf("caller with a stale preference must still reach the app, got %d", w.Code)
	}
	if c.oc != nil {
		t.Errorf("expected no org context, got %+v", c.oc)
	}
}
