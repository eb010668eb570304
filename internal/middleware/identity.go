// file: internal/middleware/identity.go
package middleware

import (
	"net/http"
	"strconv"

	"maumlog/internal/contextutils"

	"go.uber.org/zap"
)

// UserIDHeader carries the authenticated user for API requests. The gateway
// in front of this service validates the token and forwards the numeric id.
const UserIDHeader = "X-User-ID"

// Identity resolves the acting user from the forwarded header and stores it
// in the request context. Requests without the header stay anonymous; the
// handlers decide per route whether an identity is required.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				logger.Warn("Malformed user header ignored",
					zap.String("header", UserIDHeader),
					zap.String("value", raw),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextutils.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that did not resolve to a user.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if contextutils.GetUserID(r.Context()) == 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":{"type":"UNAUTHORIZED","message":"authentication required"}}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
