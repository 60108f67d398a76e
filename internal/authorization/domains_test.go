// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"testing"
)

func TestClassifyHost(t *testing.T) {
	testCases := []struct {
		name     string
		host     string
		expected Domain
	}{
		{"app subdomain", "app.example.com", DomainApp},
		{"admin subdomain", "admin.example.com", DomainAdmin},
		{"ops subdomain", "ops.example.com", DomainOps},
		{"bare domain", "example.com", DomainPublic},
		{"www", "www.example.com", DomainPublic},
		{"empty host", "", DomainPublic},
		{"host with port", "app.example.com:8080", DomainApp},
		{"mixed case", "APP.Example.COM", DomainApp},
		{"tenant subdomain on app", "acme.app.example.com", DomainApp},
		{"tenant subdomain on admin", "acme.admin.example.com", DomainAdmin},
		{"unrelated deep subdomain", "cdn.static.example.com", DomainPublic},
		{"trailing dot", "admin.example.com.", DomainAdmin},
		{"app label deeper than second", "x.y.app.example.com", DomainPublic},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if d := ClassifyHost(tc.host); d != tc.expected {
				t.Errorf("ClassifyHost(%q) = %v, expected %v", tc.host, d, tc.expected)
			}
		})
	}
}

func TestTenantLabelFromHost(t *testing.T) {
	testCases := []struct {
		name     string
		host     string
		expected string
	}{
		{"tenant on app", "acme.app.example.com", "acme"},
		{"tenant on admin", "beta.admin.example.com:443", "beta"},
		{"no tenant label", "app.example.com", ""},
		{"public host", "www.example.com", ""},
		{"bare host", "example.com", ""},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if s := TenantLabelFromHost(tc.host); s != tc.expected {
				t.Errorf("TenantLabelFromHost(%q) = %q, expected %q", tc.host, s, tc.expected)
			}
		})
	}
}
