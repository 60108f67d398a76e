// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package orgs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/org-shell/internal/authorization"
	httptypes "github.com/canonical/org-shell/internal/http/types"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/internal/types"
	"github.com/canonical/org-shell/pkg/authentication"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate

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
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// RegisterEndpoints mounts the org API on the three post-rewrite route
// trees. The gate has already classified the host, resolved the org and
// enforced the domain policy by the time these run; handlers only apply
// action-level checks.
func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/app/api/v1/orgs", a.handleListMyOrgs)
	mux.Get("/app/api/v1/org", a.handleCurrentOrg)
	mux.Post("/app/api/v1/orgs/switch", a.handleSwitch)

	mux.Get("/admin/api/v1/members", a.handleListMembers)
	mux.Post("/admin/api/v1/members", a.handleInviteMember)
	mux.Patch("/admin/api/v1/members/{userID}", a.handleUpdateMemberRole)
	mux.Delete("/admin/api/v1/members/{userID}", a.handleRemoveMember)
	mux.Post("/admin/api/v1/org/rename", a.handleRename)
	mux.Post("/admin/api/v1/org/plan", a.handleChangePlan)
	mux.Post("/admin/api/v1/org/freeze", a.handleFreeze)
	mux.Post("/admin/api/v1/org/unfreeze", a.handleUnfreeze)
	mux.Post("/admin/api/v1/org/archive", a.handleArchive)
	mux.Post("/admin/api/v1/org/transfer-ownership", a.handleTransferOwnership)

	mux.Get("/ops/api/v1/orgs", a.handleListAllOrgs)
	mux.Post("/ops/api/v1/orgs", a.handleCreateOrg)
	mux.Delete("/ops/api/v1/orgs/{orgID}", a.handleDeleteOrg)
}

type switchRequest struct {
	Slug string `json:"slug" validate:"required"`
}

type inviteRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=member admin"`
}

type roleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=member admin"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type planRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free pro enterprise"`
}

type archiveRequest struct {
	ConfirmName string `json:"confirm_name" validate:"required"`
}

type transferRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
}

type createOrgRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Slug    string `json:"slug" validate:"required,max=63,lowercase"`
	Plan    string `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	OwnerID string `json:"owner_id" validate:"required"`
}

func (a *API) handleListMyOrgs(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleListMyOrgs")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	orgs, err := a.service.ListUserOrganizations(ctx, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: orgs, Status: http.StatusOK})
}

func (a *API) handleCurrentOrg(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "orgs.API.handleCurrentOrg")
	defer span.End()

	oc, ok := OrgContextFrom(r.Context())
	if !ok {
		a.writeError(w, r, ErrNoActiveOrg)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: oc, Status: http.StatusOK})
}

func (a *API) handleSwitch(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleSwitch")
	defer span.End()

	var req switchRequest
	if !a.decode(w, r, &req) {
		return
	}

	userID, _ := authentication.GetUserID(ctx)

	result, err := a.service.SwitchActiveOrg(ctx, userID, req.Slug)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleListMembers")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	members, err := a.service.ListMembers(ctx, oc.ID, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: members, Status: http.StatusOK})
}

func (a *API) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleInviteMember")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if !a.decode(w, r, &req) {
		return
	}

	role, _ := authorization.ParseRole(req.Role)

	result, err := a.service.InviteMember(ctx, oc.ID, userID, req.UserID, role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusCreated})
}

func (a *API) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleUpdateMemberRole")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req roleUpdateRequest
	if !a.decode(w, r, &req) {
		return
	}

	role, _ := authorization.ParseRole(req.Role)

	result, err := a.service.UpdateMemberRole(ctx, oc.ID, userID, chi.URLParam(r, "userID"), role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleRemoveMember")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	result, err := a.service.RemoveMember(ctx, oc.ID, userID, chi.URLParam(r, "userID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleRename(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleRename")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if !a.decode(w, r, &req) {
		return
	}

	result, err := a.service.Rename(ctx, oc.ID, userID, req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleChangePlan")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req planRequest
	if !a.decode(w, r, &req) {
		return
	}

	result, err := a.service.ChangePlan(ctx, oc.ID, userID, req.Plan)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleFreeze(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleFreeze")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	result, err := a.service.Freeze(ctx, oc.ID, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleUnfreeze")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	result, err := a.service.Unfreeze(ctx, oc.ID, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleArchive")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req archiveRequest
	if !a.decode(w, r, &req) {
		return
	}

	result, err := a.service.Archive(ctx, oc.ID, userID, req.ConfirmName)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleTransferOwnership")
	defer span.End()

	oc, userID, ok := a.scope(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !a.decode(w, r, &req) {
		return
	}

	result, err := a.service.TransferOwnership(ctx, oc.ID, userID, req.TargetUserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

func (a *API) handleListAllOrgs(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleListAllOrgs")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	orgs, err := a.service.ListAllOrganizations(ctx, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: orgs, Status: http.StatusOK})
}

func (a *API) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleCreateOrg")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	var req createOrgRequest
	if !a.decode(w, r, &req) {
		return
	}

	org, err := a.service.CreateOrganization(ctx, &userID, req.Name, req.Slug, req.Plan, req.OwnerID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: org, Status: http.StatusCreated})
}

func (a *API) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "orgs.API.handleDeleteOrg")
	defer span.End()

	userID, _ := authentication.GetUserID(ctx)

	result, err := a.service.DeleteOrganization(ctx, userID, chi.URLParam(r, "orgID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	httptypes.WriteResponse(w, &httptypes.Response{Data: result, Status: http.StatusOK})
}

// scope pulls the gate-resolved organization context and the authenticated
// subject off the request. Both are set by upstream middleware for every
// admin route; missing org context means the caller must pick one first.
func (a *API) scope(w http.ResponseWriter, r *http.Request) (*types.OrgContext, string, bool) {
	oc, found := OrgContextFrom(r.Context())
	if !found {
		a.writeError(w, r, ErrNoActiveOrg)
		return nil, "", false
	}

	userID, _ := authentication.GetUserID(r.Context())
	return oc, userID, true
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httptypes.WriteErrorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		httptypes.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeError maps the service error taxonomy to HTTP statuses. On the ops
// tree every failure collapses to 404 so the surface does not acknowledge
// its own existence to the wrong audience.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	onOps := strings.HasPrefix(r.URL.Path, "/ops/")

	var verr *ValidationError

	switch {
	case errors.As(err, &verr):
		httptypes.WriteErrorResponse(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrAuthenticationRequired):
		if onOps {
			httptypes.WriteErrorResponse(w, http.StatusNotFound, "not found")
			return
		}
		httptypes.WriteErrorResponse(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, ErrAuthorizationDenied):
		if onOps {
			httptypes.WriteErrorResponse(w, http.StatusNotFound, "not found")
			return
		}
		httptypes.WriteErrorResponse(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrNotFound):
		httptypes.WriteErrorResponse(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrNoActiveOrg):
		httptypes.WriteResponse(w, &httptypes.Response{
			Data:    &Result{OK: false, Reason: "no active organization", NavigateTo: "/app/api/v1/orgs"},
			Status:  http.StatusConflict,
			Message: "no active organization",
		})
	case errors.Is(err, ErrStateConflict):
		httptypes.WriteErrorResponse(w, http.StatusConflict, "state conflict")
	default:
		a.logger.Errorf("unhandled service error: %v", err)
		httptypes.WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
}
