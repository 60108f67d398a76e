// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/org-shell/internal/http/types"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/version"
)

// PingerInterface reports whether the backing store is reachable. A nil
// pinger downgrades the status endpoint to a pure liveness check.
type PingerInterface interface {
	Ping(ctx context.Context) error
}

type health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type API struct {
	pinger PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(pinger PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		pinger:  pinger,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v1/status", a.alive)
	mux.Get("/api/v1/version", a.version)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	h := health{Status: "ok", Version: version.Version}
	code := http.StatusOK

	if a.pinger != nil {
		if err := a.pinger.Ping(ctx); err != nil {
			a.logger.Errorf("database ping failed: %v", err)
			h.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	httptypes.WriteResponse(w, &httptypes.Response{
		Data:   h,
		Status: code,
	})
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	httptypes.WriteResponse(w, &httptypes.Response{
		Data:   map[string]string{"version": version.Version},
		Status: http.StatusOK,
	})
}
