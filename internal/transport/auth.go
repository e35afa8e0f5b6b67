package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type organizationKey struct{}

// OrganizationResolver resolves an organization ID from a bearer token.
type OrganizationResolver interface {
	ResolveOrganization(ctx context.Context, token string) (string, error)
}

// OrganizationFromContext returns the organization ID from context, if present.
func OrganizationFromContext(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(organizationKey{}).(string)
	return orgID, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver OrganizationResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			orgID, err := resolver.ResolveOrganization(r.Context(), token)
			if err != nil || orgID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), organizationKey{}, orgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
