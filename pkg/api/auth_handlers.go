package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/validation"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authenticator *service.Authenticator
	validator     *validation.Validator
	limit         func(http.Handler) http.Handler
	logger        *logrus.Logger
}

// NewAuthHandlers creates a new auth handlers instance. limit wraps the login
// route and may be nil.
func NewAuthHandlers(authenticator *service.Authenticator, validator *validation.Validator, limit func(http.Handler) http.Handler, logger *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{
		authenticator: authenticator,
		validator:     validator,
		limit:         limit,
		logger:        logger,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	var login http.Handler = http.HandlerFunc(h.login)
	if h.limit != nil {
		login = h.limit(login)
	}
	router.Handle("/login", login).Methods("POST")
}

// login handles POST /login. The token is returned as the plain text body
// and repeated in the Authorization response header.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !httputil.ParseJSONOrError(w, r, h.logger, &creds) {
		return
	}

	if err := h.validator.Credentials(creds); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	token, user, err := h.authenticator.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	observability.FromContext(r.Context(), h.logger).
		WithField("user_id", user.ID).
		Info("User logged in")

	w.Header().Set("Authorization", auth.BearerPrefix+token)
	_ = httputil.WriteText(w, http.StatusOK, token)
}
