// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestSecurityLoggerIsAlwaysPresent(t *testing.T) {
	if NewLogger("info").Security() == nil {
		t.Error("expected a security logger")
	}
	if NewNoopLogger().Security() == nil {
		t.Error("expected a security logger on the noop logger")
	}
}
