// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
)

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw session token issued by the external
	// identity provider. Returns the subject (user ID) if valid.
	VerifyToken(ctx context.Context, rawToken string) (string, error)
}
