package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/dto"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testAPI struct {
	t       *testing.T
	server  *Server
	metrics *observability.Metrics
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithLimiter(t, middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 1000,
		WindowDuration:    time.Minute,
	}))
}

func newTestAPIWithLimiter(t *testing.T, limiter middleware.Limiter) *testAPI {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.ConnectionConfig{Dialect: store.SQLite, URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.RunMigrations(ctx, db, store.SQLite, nil))

	st := store.New(db, store.SQLite)
	logger := testLogger()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	params := auth.DefaultArgon2Params()
	params.Memory = 1024
	params.Iterations = 1
	hasher := auth.NewPasswordHasher(params)
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	users := service.NewUserService(st, hasher, service.CacheConfig{Size: 16, TTL: time.Minute}, metrics, logger)
	services := Services{
		Users:         users,
		Authenticator: service.NewAuthenticator(users, hasher, tokens, metrics, logger),
		Statuses:      service.NewStatusService(st, metrics, logger),
		Labels:        service.NewLabelService(st, metrics, logger),
		Tasks:         service.NewTaskService(st, metrics, logger),
	}

	server := NewServer(Config{BaseURL: "/api/"}, services, limiter, metrics, logger)
	return &testAPI{t: t, server: server, metrics: metrics}
}

// do sends a request through the full middleware chain; body may be nil, a
// string sent verbatim, or a value encoded as JSON
func (a *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(firstName, email, password string) dto.UserDTO {
	a.t.Helper()
	rec := a.do("POST", "/api/users", map[string]string{
		"firstName": firstName,
		"lastName":  "Tester",
		"email":     email,
		"password":  password,
	}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.UserDTO](a.t, rec)
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	rec := a.do("POST", "/api/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return strings.TrimSpace(rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewServerInitialization(t *testing.T) {
	api := newTestAPI(t)

	require.NotNil(t, api.server)
	assert.NotNil(t, api.server.router, "router should be initialized")
	assert.Equal(t, "/api", api.server.config.BaseURL, "trailing slash should be trimmed")
	assert.Equal(t, int64(DefaultMaxBodyBytes), api.server.config.MaxBodyBytes)
	assert.NotNil(t, api.server.authHandlers)
	assert.NotNil(t, api.server.taskHandlers)
}

func TestRegisterRoutes(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/welcome"},
		{"POST", "/api/login"},
		{"GET", "/api/users"},
		{"POST", "/api/users"},
		{"GET", "/api/users/1"},
		{"PUT", "/api/users/1"},
		{"DELETE", "/api/users/1"},
		{"GET", "/api/statuses"},
		{"POST", "/api/statuses"},
		{"GET", "/api/statuses/1"},
		{"PUT", "/api/statuses/1"},
		{"DELETE", "/api/statuses/1"},
		{"GET", "/api/labels"},
		{"POST", "/api/labels"},
		{"PUT", "/api/labels/1"},
		{"DELETE", "/api/labels/1"},
		{"GET", "/api/tasks"},
		{"POST", "/api/tasks"},
		{"GET", "/api/tasks/1"},
		{"PUT", "/api/tasks/1"},
		{"DELETE", "/api/tasks/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			var match mux.RouteMatch
			assert.True(t, api.server.Router().Match(req, &match), "route should be registered")
			assert.NoError(t, match.MatchErr)
		})
	}
}

func TestWelcome(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do("GET", "/welcome", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Welcome to taskboard", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServerServeHTTP_NotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do("GET", "/nonexistent", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// resource routes live under the base URL only
	rec = api.do("GET", "/users", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerServeHTTP_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do("PATCH", "/api/users", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerRejectsNonJSONBodies(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest("POST", "/api/users", strings.NewReader("firstName=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	api.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestServerMalformedJSON(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do("POST", "/api/users", `{"firstName":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do("POST", "/api/users", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
