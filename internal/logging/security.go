// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger emits structured security events on a dedicated named
// logger so they can be shipped and alerted on independently from
// application logs.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnFailure(subject string) {
	s.l.Warn("authentication failure",
		zap.String("event", "authn_failure"),
		zap.String("subject", subject),
	)
}

func (s *SecurityLogger) AuthzFailure(subject, action string) {
	s.l.Warn("authorization failure",
		zap.String("event", "authz_failure"),
		zap.String("subject", subject),
		zap.String("action", action),
	)
}

func (s *SecurityLogger) PrivilegedAction(subject, orgID, action string) {
	s.l.Info("privileged action",
		zap.String("event", "privileged_action"),
		zap.String("subject", subject),
		zap.String("org_id", orgID),
		zap.String("action", action),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system_startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system_shutdown"))
}
