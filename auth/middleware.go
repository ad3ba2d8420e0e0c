package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	tokenContextKey  contextKey = "token"
)

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context.
func Middleware(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := logging.RequestIDFromContext(r.Context())

			tokenString, err := bearerToken(r)
			if err != nil {
				apperrors.WriteError(w, apperrors.Unauthorized(authMessage(err)), requestID)
				return
			}

			claims, err := jwtManager.ValidateToken(tokenString)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rejected bearer token", "error", err)
				apperrors.WriteError(w, apperrors.Unauthorized(authMessage(err)), requestID)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = context.WithValue(ctx, tokenContextKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose claims carry none of roles.
// It must run after Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := logging.RequestIDFromContext(r.Context())

			claims := GetClaims(r.Context())
			if claims == nil {
				apperrors.WriteError(w, apperrors.Unauthorized(""), requestID)
				return
			}

			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apperrors.WriteError(w, apperrors.Forbidden("insufficient permissions"), requestID)
		})
	}
}

// AuditActor returns the audit actor for an authenticated request, or nil.
func AuditActor(r *http.Request) *logging.AuditActor {
	claims := GetClaims(r.Context())
	if claims == nil {
		return nil
	}
	return &logging.AuditActor{
		Type: claims.Role(),
		ID:   claims.Subject,
		Name: claims.Email,
	}
}

// GetClaims retrieves claims from context.
func GetClaims(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetTokenFromContext retrieves the raw JWT token from context.
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// WithClaims adds claims to the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

var errBadHeader = errors.New("invalid authorization header format")

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return ""
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case errors.Is(err, errBadHeader):
		return errBadHeader.Error()
	default:
		return "invalid token"
	}
}
