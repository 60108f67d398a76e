// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

import (
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/org-shell/internal/http/types"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/pkg/authentication"
	"github.com/canonical/org-shell/pkg/orgs"
)

type API struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(
	service ServiceInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *API {
	return &API{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/admin/api/v1/audit", a.handleList)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "audit.API.handleList")
	defer span.End()

	oc, ok := orgs.OrgContextFrom(ctx)
	if !ok {
		httptypes.WriteErrorResponse(w, http.StatusConflict, "no active organization")
		return
	}

	userID, _ := authentication.GetUserID(ctx)

	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)
	limit, _ := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64)

	entries, err := a.service.ListEntries(ctx, oc.ID, userID, offset, limit)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrAuthenticationRequired):
			httptypes.WriteErrorResponse(w, http.StatusUnauthorized, "authentication required")
		case errors.Is(err, orgs.ErrAuthorizationDenied):
			httptypes.WriteErrorResponse(w, http.StatusForbidden, "forbidden")
		case errors.Is(err, orgs.ErrNotFound):
			httptypes.WriteErrorResponse(w, http.StatusNotFound, "not found")
		default:
			httptypes.WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: entries, Status: http.StatusOK})
}
