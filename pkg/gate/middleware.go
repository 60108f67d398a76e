// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package gate is the single request chokepoint. It classifies the host,
// resolves the caller's organization and role, applies the domain policy
// and rewrites the path onto the matching handler tree. It never writes
// audit entries; routing is its only side effect.
package gate

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/canonical/org-shell/internal/authorization"
	httptypes "github.com/canonical/org-shell/internal/http/types"
	"github.com/canonical/org-shell/internal/logging"
	"github.com/canonical/org-shell/internal/monitoring"
	"github.com/canonical/org-shell/internal/tracing"
	"github.com/canonical/org-shell/pkg/authentication"
	"github.com/canonical/org-shell/pkg/orgs"
)

// Paths served identically on every domain, passed through without
// classification or org resolution. Status and metrics must stay reachable
// for probes that carry no session; static assets are non-navigational
// traffic for which an active-org read would be wasted work.
var bypassPrefixes = []string{
	"/api/v1/status",
	"/api/v1/version",
	"/api/v1/metrics",
	"/static/",
	"/favicon.ico",
}

type Middleware struct {
	resolver ResolverInterface
	loginURL string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(
	resolver ResolverInterface,
	loginURL string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Middleware {
	return &Middleware{
		resolver: resolver,
		loginURL: loginURL,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// Gate produces exactly one of: a pass-through with the path rewritten to
// /<domain><original path>, a login redirect, a forbidden response, or a
// not-found. The ops domain never distinguishes its failure modes; every
// denial there is a not-found.
func (m *Middleware) Gate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "gate.Middleware.Gate")
			defer span.End()
			r = r.WithContext(ctx)

			for _, p := range bypassPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			domain := authorization.ClassifyHost(r.Host)
			userID, authenticated := authentication.GetUserID(ctx)

			switch domain {
			case authorization.DomainPublic:
				m.pass(w, r, next, domain)
			case authorization.DomainOps:
				m.gateOps(w, r, next, userID, authenticated)
			default:
				m.gateTenant(w, r, next, domain, userID, authenticated)
			}
		})
	}
}

func (m *Middleware) gateOps(w http.ResponseWriter, r *http.Request, next http.Handler, userID string, authenticated bool) {
	role := authorization.RoleNone
	if authenticated {
		operator, err := m.resolver.IsOperator(r.Context(), userID)
		if err != nil {
			// Even an internal failure must not acknowledge this
			// surface.
			m.logger.Errorf("operator check failed: %v", err)
			m.notFound(w)
			return
		}
		if operator {
			role = authorization.RoleOps
		}
	}

	if d := authorization.CheckDomain(role, authorization.DomainOps); d.Verdict != authorization.Allow {
		m.logger.Security().AuthzFailure(userID, "ops_domain_access")
		m.notFound(w)
		return
	}

	m.pass(w, r, next, authorization.DomainOps)
}

func (m *Middleware) gateTenant(w http.ResponseWriter, r *http.Request, next http.Handler, domain authorization.Domain, userID string, authenticated bool) {
	if !authenticated {
		m.redirectToLogin(w, r)
		return
	}

	oc, err := m.resolver.ResolveOrg(r.Context(), userID, m.explicitSlug(r))
	switch {
	case err == nil:
	case errors.Is(err, orgs.ErrNoActiveOrg):
		// An authenticated caller with no current organization may
		// still enter the app to pick one. The admin domain has
		// nothing to administer without an org.
		if domain == authorization.DomainApp {
			m.pass(w, r, next, domain)
			return
		}
		m.notFound(w)
		return
	case errors.Is(err, orgs.ErrNotFound):
		m.notFound(w)
		return
	default:
		m.logger.Errorf("org resolution failed: %v", err)
		httptypes.WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
		return
	}

	decision := authorization.CheckDomain(oc.Role, domain)
	switch decision.Verdict {
	case authorization.Allow:
		r = r.WithContext(orgs.WithOrgContext(r.Context(), oc))
		m.pass(w, r, next, domain)
	case authorization.DenyUnauthenticated:
		m.redirectToLogin(w, r)
	case authorization.DenyNotFound:
		m.notFound(w)
	default:
		m.logger.Security().AuthzFailure(userID, string(domain)+"_domain_access")
		httptypes.WriteErrorResponse(w, http.StatusForbidden, "forbidden")
	}
}

// explicitSlug extracts an explicit org selection: a tenant subdomain label
// first, then an org query parameter. Explicit selection never touches the
// stored active-org preference.
func (m *Middleware) explicitSlug(r *http.Request) string {
	if label := authorization.TenantLabelFromHost(r.Host); label != "" {
		return label
	}
	return r.URL.Query().Get("org")
}

// pass rewrites the request onto the resolved domain's handler tree. The
// rewrite is internal only; the client-visible URL never changes.
func (m *Middleware) pass(w http.ResponseWriter, r *http.Request, next http.Handler, domain authorization.Domain) {
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/" + string(domain) + r.URL.Path
	if r.URL.RawPath != "" {
		r2.URL.RawPath = "/" + string(domain) + r.URL.RawPath
	}
	next.ServeHTTP(w, r2)
}

func (m *Middleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.RequestURI()
	http.Redirect(w, r, m.loginURL+"?next="+url.QueryEscape(next), http.StatusFound)
}

func (m *Middleware) notFound(w http.ResponseWriter) {
	httptypes.WriteErrorResponse(w, http.StatusNotFound, "not found")
}
