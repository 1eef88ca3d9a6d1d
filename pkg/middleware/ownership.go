package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/httputil"
)

// OwnerLookup returns the id of the user owning the record with the given id,
// or a not found error
type OwnerLookup func(ctx context.Context, id int64) (int64, error)

// RequireOwner allows the request only when the caller owns the record named
// by the path variable param. It runs before the handler:
//
//	no identity       401
//	invalid id        400
//	unknown record    404
//	someone else's    403
func RequireOwner(param string, lookup OwnerLookup, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httputil.WriteAppError(w, r, logger,
					fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthenticated))
				return
			}

			id, ok := httputil.ParsePathIDOrError(w, r, logger, param)
			if !ok {
				return
			}

			ownerID, err := lookup(r.Context(), id)
			if err != nil {
				httputil.WriteAppError(w, r, logger, err)
				return
			}

			if !identity.IsOwner(ownerID) {
				httputil.WriteAppError(w, r, logger,
					apperrors.NewForbiddenError(fmt.Sprintf("user %d does not own this record", identity.UserID)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
