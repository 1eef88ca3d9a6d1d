package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/dto"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/validation"
)

// Task list query parameters
const (
	queryStatus   = "taskStatus"
	queryExecutor = "executorId"
	queryLabel    = "labelsId"
	queryAuthor   = "authorId"
)

// TaskHandlers handles /tasks requests. Only the author may delete a task.
type TaskHandlers struct {
	tasks     *service.TaskService
	validator *validation.Validator
	protect   func(http.Handler) http.Handler
	logger    *logrus.Logger
}

// NewTaskHandlers creates task handlers
func NewTaskHandlers(tasks *service.TaskService, validator *validation.Validator, protect func(http.Handler) http.Handler, logger *logrus.Logger) *TaskHandlers {
	return &TaskHandlers{
		tasks:     tasks,
		validator: validator,
		protect:   protect,
		logger:    logger,
	}
}

// RegisterRoutes registers task routes
func (h *TaskHandlers) RegisterRoutes(router *mux.Router) {
	author := middleware.RequireOwner("id", h.tasks.AuthorOf, h.logger)

	router.Handle("/tasks", h.protect(http.HandlerFunc(h.listTasks))).Methods("GET")
	router.Handle("/tasks", h.protect(http.HandlerFunc(h.createTask))).Methods("POST")
	router.Handle("/tasks/{id}", h.protect(http.HandlerFunc(h.getTask))).Methods("GET")
	router.Handle("/tasks/{id}", h.protect(http.HandlerFunc(h.updateTask))).Methods("PUT")
	router.Handle("/tasks/{id}", h.protect(author(http.HandlerFunc(h.deleteTask)))).Methods("DELETE")
}

// listTasks handles GET /tasks?taskStatus=&executorId=&labelsId=&authorId=
func (h *TaskHandlers) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTaskFilter(r)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromTaskDetailsList(tasks))
}

// createTask handles POST /tasks; the caller becomes the author
func (h *TaskHandlers) createTask(w http.ResponseWriter, r *http.Request) {
	var req dto.TaskRequest
	if !httputil.ParseJSONOrError(w, r, h.logger, &req) {
		return
	}
	if err := h.validator.TaskCreate(req); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	identity, _ := middleware.IdentityFromContext(r.Context())
	task, err := h.tasks.Create(r.Context(), identity, dto.ToTaskInput(req))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteCreated(w, dto.FromTaskDetails(task))
}

// getTask handles GET /tasks/{id}
func (h *TaskHandlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromTaskDetails(task))
}

// updateTask handles PUT /tasks/{id}
func (h *TaskHandlers) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	var req dto.TaskRequest
	if !httputil.ParseJSONOrError(w, r, h.logger, &req) {
		return
	}
	if err := h.validator.TaskUpdate(req); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, dto.ToTaskPatch(req))
	if err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteSuccess(w, dto.FromTaskDetails(task))
}

// deleteTask handles DELETE /tasks/{id}
func (h *TaskHandlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		httputil.WriteAppError(w, r, h.logger, err)
		return
	}
	httputil.WriteNoContent(w)
}

func parseTaskFilter(r *http.Request) (models.TaskFilter, error) {
	var (
		filter models.TaskFilter
		err    error
	)
	fields := []struct {
		key  string
		dest **int64
	}{
		{queryStatus, &filter.StatusID},
		{queryExecutor, &filter.ExecutorID},
		{queryLabel, &filter.LabelID},
		{queryAuthor, &filter.AuthorID},
	}

	verr := apperrors.NewValidationError()
	for _, f := range fields {
		if *f.dest, err = httputil.ParseQueryID(r, f.key); err != nil {
			verr.Add(f.key, fmt.Sprintf("%s must be a positive integer", f.key))
		}
	}
	return filter, verr.OrNil()
}
