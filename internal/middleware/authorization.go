package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after AuthMiddleware.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if !identity.Authenticated() {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.HasRole(roles...) {
				logger.Warn("User role not authorized",
					zap.String("user_id", identity.UserID.String()),
					zap.String("role", identity.Role),
					zap.Strings("allowed_roles", roles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
