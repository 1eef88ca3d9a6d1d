package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/dto"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/validation"
)

// UserHandlers handles /users requests. Registration and listing are open;
// reading a user needs a token and changing one needs to be that user.
type UserHandlers struct {
	users     *service.UserService
	validator *validation.Validator
	protect   func(http.Handler) http.Handler
	logger    *logrus.Logger
}

// NewUserHandlers creates user handlers. protect wraps every route that
// requires an authenticated caller.
func NewUserHandlers(users *service.UserService, validator *validation.Validator, protect func(http.Handler) http.Handler, logger *logrus.Logger) *UserHandlers {
	return &UserHandlers{
		users:     users,
		validator: validator,
		protect:   protect,
		logger:    logger,
	}
}

// RegisterRoutes registers user routes
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	self := middleware.RequireOwner("id", selfOwner(h.users), h.logger)

	router.HandleFunc("/users", h.listUsers).Methods("GET")
	router.HandleFunc("/users", h.createUser).Methods("POST")
	router.Handle("/users/{id}", h.protect(http.HandlerFunc(h.getUser))).Methods("GET")
	router.Handle("/users/{id}", h.protect(self(http.HandlerFunc(h.updateUser)))).Methods("PUT")
	router.Handle("/users/{id}", h.protect(self(http.HandlerFunc(h.deleteUser)))).Methods("DELETE")
}

// listUsers handles GET /users
func (h *UserHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromUsers(users))
}

// createUser handles POST /users
func (h *UserHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if !httputil.ParseJSONOrError(w, r, h.logger, &req) {
		return
	}
	if err := h.validator.Registration(req); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), dto.ToUserInput(req))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, dto.FromUser(user))
}

// getUser handles GET /users/{id}
func (h *UserHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromUser(user))
}

// updateUser handles PUT /users/{id}
func (h *UserHandlers) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	var req dto.UserRequest
	if !httputil.ParseJSONOrError(w, r, h.logger, &req) {
		return
	}
	if err := h.validator.UserUpdate(req); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, dto.ToUserPatch(req))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromUser(user))
}

// deleteUser handles DELETE /users/{id}
func (h *UserHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}
