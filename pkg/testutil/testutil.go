// Package testutil provides common test utilities for handler and service tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shiftledger/pkg/requestcontext"
)

// Logger returns a logger that discards output, for constructing services in
// tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ContextWithTime pins the request-scoped clock so time-dependent logic is
// deterministic in tests.
func ContextWithTime(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

// WithTenant adds a tenant ID to the request context, simulating what the
// auth middleware does for authenticated requests.
func WithTenant(req *http.Request, tenantID string) *http.Request {
	return req.WithContext(requestcontext.WithTenantID(req.Context(), tenantID))
}

// WithManager marks the request as coming from a manager-role caller.
func WithManager(req *http.Request, uid string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), uid, requestcontext.RoleManager))
}
