package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/contextkeys"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// TokenAuthenticator resolves a bearer token to the identity it was issued for
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware binds the caller identity of a Bearer token to the request.
//
// Requests without an Authorization header, or with a non-Bearer scheme,
// continue unauthenticated; RequireAuth rejects them where identity is
// needed. A Bearer token that fails verification is rejected with 401
// immediately.
type AuthMiddleware struct {
	authenticator TokenAuthenticator
	logger        *logrus.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authenticator TokenAuthenticator, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			httputil.WriteAppError(w, r, m.logger, err)
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), identity)
		entry := observability.FromContext(ctx, m.logger).WithField("user_id", identity.UserID)
		ctx = contextkeys.WithLogger(ctx, entry)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the identity bound by AuthMiddleware
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(contextkeys.AuthKey).(*auth.Identity)
	return identity, ok && identity != nil
}

// RequireAuth rejects requests that carry no identity with 401
func RequireAuth(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				httputil.WriteAppError(w, r, logger,
					fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthenticated))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
