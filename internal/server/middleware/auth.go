package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// SessionCookie is the cookie that carries the session token for browser
// clients. API clients may send the same token as a Bearer header instead.
const SessionCookie = "askdb_session"

// Authenticate returns an HTTP middleware that resolves the session token
// from the askdb_session cookie or the Authorization Bearer header, validates
// it, and attaches the service.Principal to the request context. Requests
// without a valid token get a 401 JSON error.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					token = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}
			if token == "" {
				writeAuthError(w, "Authentication required")
				return
			}

			principal, err := authSvc.ValidateToken(r.Context(), token)
			if err != nil {
				writeAuthError(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal attaches a principal to the context directly, used by tests
// to bypass token validation.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, AuthPrincipalKey, p)
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Manually construct JSON to avoid an import cycle with the handler
	// package.
	w.Write([]byte(`{"error":{"code":401,"message":"` + message + `"}}`))
}
