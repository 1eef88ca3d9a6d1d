package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/dto"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/service"
)

// NamedHandlers serves CRUD routes for an entity that is only a unique name,
// i.e. task statuses and labels. Every route requires authentication.
type NamedHandlers[M any, D any] struct {
	svc      *service.NamedService[M]
	resource string
	validate func(dto.NameRequest) error
	convert  func(M) D
	protect  func(http.Handler) http.Handler
	logger   *logrus.Logger
}

// NewNamedHandlers creates handlers mounted at /{resource}
func NewNamedHandlers[M any, D any](
	svc *service.NamedService[M],
	resource string,
	validate func(dto.NameRequest) error,
	convert func(M) D,
	protect func(http.Handler) http.Handler,
	logger *logrus.Logger,
) *NamedHandlers[M, D] {
	return &NamedHandlers[M, D]{
		svc:      svc,
		resource: resource,
		validate: validate,
		convert:  convert,
		protect:  protect,
		logger:   logger,
	}
}

// RegisterRoutes registers the collection and item routes
func (h *NamedHandlers[M, D]) RegisterRoutes(router *mux.Router) {
	collection := "/" + h.resource
	item := collection + "/{id}"

	router.Handle(collection, h.protect(http.HandlerFunc(h.list))).Methods("GET")
	router.Handle(collection, h.protect(http.HandlerFunc(h.create))).Methods("POST")
	router.Handle(item, h.protect(http.HandlerFunc(h.get))).Methods("GET")
	router.Handle(item, h.protect(http.HandlerFunc(h.update))).Methods("PUT")
	router.Handle(item, h.protect(http.HandlerFunc(h.delete))).Methods("DELETE")
}

func (h *NamedHandlers[M, D]) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, h.convert(item))
	}
	httputil.WriteSuccess(w, out)
}

func (h *NamedHandlers[M, D]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, h.convert(item))
}

func (h *NamedHandlers[M, D]) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Create(r.Context(), *req.Name)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, h.convert(item))
}

func (h *NamedHandlers[M, D]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Update(r.Context(), id, *req.Name)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, h.convert(item))
}

func (h *NamedHandlers[M, D]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}

// parse decodes and validates a name body; a valid body has a non-nil Name
func (h *NamedHandlers[M, D]) parse(w http.ResponseWriter, r *http.Request) (dto.NameRequest, bool) {
	var req dto.NameRequest
	if !httputil.ParseJSONOrError(w, r, h.logger, &req) {
		return req, false
	}
	if err := h.validate(req); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return req, false
	}
	return req, true
}
