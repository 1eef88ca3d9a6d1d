package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
)

func TestRequireOwner(t *testing.T) {
	// task 1 belongs to user 10, task 2 to user 20
	owners := map[int64]int64{1: 10, 2: 20}
	lookup := func(_ context.Context, id int64) (int64, error) {
		owner, ok := owners[id]
		if !ok {
			return 0, apperrors.NewNotFoundError("task", id)
		}
		return owner, nil
	}

	router := mux.NewRouter()
	router.Handle("/tasks/{id}", RequireOwner("id", lookup, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))).Methods("DELETE")

	tests := []struct {
		name     string
		path     string
		identity *auth.Identity
		want     int
	}{
		{"owner", "/tasks/1", &auth.Identity{UserID: 10}, http.StatusNoContent},
		{"not owner", "/tasks/2", &auth.Identity{UserID: 10}, http.StatusForbidden},
		{"unknown record", "/tasks/99", &auth.Identity{UserID: 10}, http.StatusNotFound},
		{"invalid id", "/tasks/abc", &auth.Identity{UserID: 10}, http.StatusBadRequest},
		{"anonymous", "/tasks/1", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", tt.path, nil)
			if tt.identity != nil {
				req = withIdentity(req, tt.identity)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
