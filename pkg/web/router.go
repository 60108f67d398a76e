// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/org-shell/internal/db"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/storage"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/pkg/audit"
	"github.com/canonical/org-shell/pkg/authentication"
	"github.com/canonical/org-shell/pkg/gate"
	"github.com/canonical/org-shell/pkg/metrics"
	"github.com/canonical/org-shell/pkg/orgs"
	"github.com/canonical/org-shell/pkg/status"
)

type RouterConfig struct {
	LoginURL           string
	SessionCookieName  string
	CORSAllowedOrigins []string
}

// NewRouter wires the full request pipeline: request id, metrics, CORS,
// session annotation, then the gate, and finally the per-domain handler
// trees. The gate rewrites each request onto /public, /app, /admin or /ops
// before the mux matches it.
func NewRouter(
	cfg RouterConfig,
	s storage.StorageInterface,
	dbClient db.DBClientInterface,
	verifier authentication.TokenVerifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	orgService := orgs.NewService(s, tracer, monitor, logger)
	auditService := audit.NewService(s, tracer, monitor, logger)

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSAllowedOrigins),
		authentication.NewMiddleware(verifier, cfg.SessionCookieName, tracer, monitor, logger).Session(),
		gate.NewMiddleware(orgService, cfg.LoginURL, tracer, monitor, logger).Gate(),
	)

	router.Use(middlewares...)

	// Public pages are rendered upstream; the service only acknowledges the
	// routes so the gate's rewrite has somewhere to land.
	router.Handle("/public/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(dbClient, tracer, monitor, logger).RegisterEndpoints(router)
	orgs.NewAPI(orgService, tracer, monitor, logger).RegisterEndpoints(router)
	audit.NewAPI(auditService, tracer, monitor, logger).RegisterEndpoints(router)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
