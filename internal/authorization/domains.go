// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"net"
	"strings"
)

// Domain is one of the four audience-facing request targets, selected by
// subdomain.
type Domain string

const (
	DomainPublic Domain = "public"
	DomainApp    Domain = "app"
	DomainAdmin  Domain = "admin"
	DomainOps    Domain = "ops"
)

// ClassifyHost maps a request host to the domain it targets. The first
// subdomain label selects the domain (app., admin., ops.); a tenant
// subdomain may precede it (acme.app.example.com). Anything else, including
// an absent host, is the public domain. Classification never looks at
// authentication state.
func ClassifyHost(host string) Domain {
	labels := hostLabels(host)
	if len(labels) == 0 {
		return DomainPublic
	}

	if d, ok := domainLabel(labels[0]); ok {
		return d
	}
	if len(labels) > 1 {
		if d, ok := domainLabel(labels[1]); ok {
			return d
		}
	}
	return DomainPublic
}

// TenantLabelFromHost extracts the tenant slug from a subdomain-per-tenant
// host of the form <slug>.<domain>.<base>. It returns "" when the host does
// not carry a tenant label. The label only ever selects which organization
// to look up; membership is always checked separately.
func TenantLabelFromHost(host string) string {
	labels := hostLabels(host)
	if len(labels) < 2 {
		return ""
	}
	if _, ok := domainLabel(labels[0]); ok {
		return ""
	}
	if _, ok := domainLabel(labels[1]); !ok {
		return ""
	}
	return labels[0]
}

func domainLabel(label string) (Domain, bool) {
	switch label {
	case "app":
		return DomainApp, true
	case "admin":
		return DomainAdmin, true
	case "ops":
		return DomainOps, true
	}
	return DomainPublic, false
}

func hostLabels(host string) []string {
	if host == "" {
		return nil
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return nil
	}
	return strings.Split(host, ".")
}
