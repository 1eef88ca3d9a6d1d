package api

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/dto"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/validation"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// Config holds the HTTP-facing settings of the API
type Config struct {
	// BaseURL prefixes every resource route, e.g. "/api"
	BaseURL        string
	MaxBodyBytes   int64
	// TrustedProxies may name the client in forwarding headers for the login
	// rate limit
	TrustedProxies []netip.Prefix
}

// Services are the use cases the handlers call
type Services struct {
	Users         *service.UserService
	Authenticator *service.Authenticator
	Statuses      *service.StatusService
	Labels        *service.LabelService
	Tasks         *service.TaskService
}

// Server represents our API server
type Server struct {
	config    Config
	router    *mux.Router
	handler   http.Handler
	logger    *logrus.Logger
	metrics   *observability.Metrics
	validator *validation.Validator
	auth      *middleware.AuthMiddleware

	authHandlers   *AuthHandlers
	userHandlers   *UserHandlers
	statusHandlers *NamedHandlers[*models.Status, dto.StatusDTO]
	labelHandlers  *NamedHandlers[*models.Label, dto.LabelDTO]
	taskHandlers   *TaskHandlers
}

// NewServer creates a new API server. loginLimiter and metrics may be nil.
func NewServer(config Config, services Services, loginLimiter middleware.Limiter, metrics *observability.Metrics, logger *logrus.Logger) *Server {
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		config:    config,
		router:    mux.NewRouter(),
		logger:    logger,
		metrics:   metrics,
		validator: validation.NewValidator(nil),
		auth:      middleware.NewAuthMiddleware(services.Authenticator, logger),
	}

	var loginGuard func(http.Handler) http.Handler
	if loginLimiter != nil {
		limit := middleware.NewRateLimitMiddleware(loginLimiter, metrics, logger)
		limit.SetTrustedProxies(config.TrustedProxies)
		loginGuard = limit.Handler
	}

	s.authHandlers = NewAuthHandlers(services.Authenticator, s.validator, loginGuard, logger)
	s.userHandlers = NewUserHandlers(services.Users, s.validator, s.authenticated, logger)
	s.statusHandlers = NewNamedHandlers(services.Statuses, "statuses", s.validator.Status, dto.FromStatus, s.authenticated, logger)
	s.labelHandlers = NewNamedHandlers(services.Labels, "labels", s.validator.Label, dto.FromLabel, s.authenticated, logger)
	s.taskHandlers = NewTaskHandlers(services.Tasks, s.validator, s.authenticated, logger)

	s.setupRoutes()

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(config.MaxBodyBytes),
		httputil.ContentTypeMiddleware,
	)(s.router)

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router.HandleFunc("/welcome", s.welcome).Methods("GET")

	base := s.router
	if s.config.BaseURL != "" {
		base = s.router.PathPrefix(s.config.BaseURL).Subrouter()
	}

	s.RegisterRoutes(base, s.authHandlers)
	s.RegisterRoutes(base, s.userHandlers)
	s.RegisterRoutes(base, s.statusHandlers)
	s.RegisterRoutes(base, s.labelHandlers)
	s.RegisterRoutes(base, s.taskHandlers)
}

// authenticated resolves the bearer token and rejects anonymous callers
func (s *Server) authenticated(next http.Handler) http.Handler {
	return s.auth.Handler(middleware.RequireAuth(s.logger)(next))
}

// welcome handles GET /welcome
func (s *Server) welcome(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"message": "Welcome to taskboard"})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the route table, e.g. for walking it in tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar on router
func (s *Server) RegisterRoutes(router *mux.Router, registrar RouteRegistrar) {
	registrar.RegisterRoutes(router)
}

// selfOwner treats a user as owned by itself; unknown ids are not found
func selfOwner(users *service.UserService) middleware.OwnerLookup {
	return func(ctx context.Context, id int64) (int64, error) {
		user, err := users.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	}
}
