// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
)

func newTestMiddleware() *Middleware {
	return NewMiddleware(
		NewNoopVerifier(),
		"session",
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("test"),
		logging.NewNoopLogger(),
	)
}

func TestSessionResolvesCookie(t *testing.T) {
	m := newTestMiddleware()

	var gotUser string
	var gotOK bool
	handler := m.Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotOK = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "user-123"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !gotOK || gotUser != "user-123" {
		t.Errorf("expected user-123 from cookie, got %q (ok=%v)", gotUser, gotOK)
	}
}

func TestSessionResolvesBearerToken(t *testing.T) {
	m := newTestMiddleware()

	var gotUser string
	handler := m.Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-456")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUser != "user-456" {
		t.Errorf("expected user-456 from bearer token, got %q", gotUser)
	}
}

func TestSessionContinuesUnauthenticated(t *testing.T) {
	m := newTestMiddleware()

	called := false
	var gotOK bool
	handler := m.Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, gotOK = GetUserID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Fatal("handler should run for unauthenticated requests")
	}
	if gotOK {
		t.Error("no user should be resolved without credentials")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("middleware must not reject, got status %d", rec.Code)
	}
}

func TestSessionIgnoresMalformedAuthorizationHeader(t *testing.T) {
	m := newTestMiddleware()

	var gotOK bool
	handler := m.Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotOK = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotOK {
		t.Error("non-bearer authorization header should not resolve a user")
	}
}
