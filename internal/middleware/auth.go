package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"handcrafted-haven/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware validates the bearer token and stores the caller identity
// in the request context
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			identity, err := parseIdentity(tokenString, secret)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", identity.UserID.String()),
				zap.String("role", identity.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches the caller identity when the request carries a valid
// bearer token and passes every request through. Rejecting bad tokens is left
// to AuthMiddleware on the routes that need one.
func OptionalAuth(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, tokenString, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := parseIdentity(tokenString, secret)
			if err != nil {
				logger.Debug("Ignoring unusable bearer token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func parseIdentity(tokenString string, secret []byte) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return domain.Identity{}, err
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		return domain.Identity{}, jwt.ErrTokenInvalidClaims
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return domain.Identity{}, jwt.ErrTokenInvalidClaims
	}

	return domain.Identity{UserID: userID, Role: role}, nil
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated caller, or the anonymous
// zero identity when the request passed no auth middleware
func IdentityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}
