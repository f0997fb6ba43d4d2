package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"predictbattle/internal/model"
	"predictbattle/internal/service"
	"predictbattle/internal/transport/rest/apierr"
)

type contextKey string

const IdentityKey contextKey = "identity"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
	out     *apierr.Writer
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService, out *apierr.Writer) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, out: out}
}

// RequireUser rejects requests without a valid bearer token
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			m.out.Error(w, r, model.ErrNoToken)
			return
		}

		identity, err := m.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			m.out.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalUser attaches the caller when a valid bearer token is present.
// Requests with a missing or unusable token continue anonymously.
func (m *AuthMiddleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.authSvc.Authenticate(r.Context(), token)
		if errors.Is(err, model.ErrUnauthorized) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			m.out.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity stores the caller in ctx
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity extracts the caller from context, nil for anonymous requests
func GetIdentity(ctx context.Context) *model.Identity {
	if v, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return v
	}
	return nil
}

// BearerToken returns the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
