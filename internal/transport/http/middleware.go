package httptransport

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"shiftledger/pkg/requestcontext"
)

// Claims is the token payload the ledger expects: a tenant scope, the
// caller's uid in Subject, and an optional manager role.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate validates the bearer token and seeds the request context with
// tenant, actor, request id and request time. Every handler downstream reads
// those through requestcontext, never from the token directly.
func Authenticate(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !parsed.Valid {
				logger.WarnContext(r.Context(), "rejected token", "error", err)
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			if claims.TenantID == "" || claims.Subject == "" {
				writeUnauthorized(w, "token missing tenant or subject")
				return
			}

			ctx := requestcontext.WithTenantID(r.Context(), claims.TenantID)
			ctx = requestcontext.WithActor(ctx, claims.Subject, claims.Role)
			ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
			ctx = requestcontext.WithTime(ctx, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager gates override and approval endpoints on the manager role.
func RequireManager(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requestcontext.IsManager(r.Context()) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "manager role required"})
			return
		}
		next(w, r)
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: message})
}
