// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"net/http"
	"strings"

	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
)

type Middleware struct {
	verifier   TokenVerifierInterface
	cookieName string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Session resolves the caller's identity from the session cookie or a bearer
// token and annotates the request context. It never rejects: requests
// without a resolvable subject continue unauthenticated and the gate decides
// what that means for the target domain.
func (m *Middleware) Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.Session")
			defer span.End()

			token, found := m.getToken(r)
			if !found {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			userID, err := m.verifier.VerifyToken(ctx, token)
			if err != nil {
				m.logger.Debugf("session token verification failed: %v", err)
				m.logger.Security().AuthnFailure("unknown")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) getToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	bearer := r.Header.Get("Authorization")
	if bearer == "" {
		return "", false
	}

	// Only support "Bearer <token>" format (RFC 6750)
	if !strings.HasPrefix(bearer, "Bearer ") {
		return "", false
	}

	return strings.TrimPrefix(bearer, "Bearer "), true
}

func NewMiddleware(verifier TokenVerifierInterface, cookieName string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		verifier:   verifier,
		cookieName: cookieName,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
