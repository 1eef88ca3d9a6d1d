package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/api"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/config"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/service"
	"github.com/platinummonkey/taskboard/pkg/store"
)

// App is a fully wired taskboard process: database, services and the two
// HTTP handlers (API and ops). Close releases what NewApp opened.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *sql.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Limiter  middleware.Limiter
	API      *api.Server
	Ops      *http.ServeMux
}

// NewApp opens the store, runs migrations when configured and builds every
// service by constructor injection
func NewApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger, version string) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	dialect := store.Dialect(cfg.Database.Driver)
	app.DB, err = openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err = store.RunMigrations(ctx, app.DB, dialect, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if cfg.Redis.URL != "" {
		if app.Redis, err = openRedis(ctx, cfg.Redis); err != nil {
			return nil, err
		}
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.Observability.MetricsEnabled {
		app.Metrics = observability.NewMetrics(app.Registry)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params())

	st := store.New(app.DB, dialect)
	users := service.NewUserService(st, hasher, service.CacheConfig{
		Size: cfg.Cache.Size,
		TTL:  cfg.Cache.TTL,
	}, app.Metrics, logger)

	services := api.Services{
		Users:         users,
		Authenticator: service.NewAuthenticator(users, hasher, tokens, app.Metrics, logger),
		Statuses:      service.NewStatusService(st, app.Metrics, logger),
		Labels:        service.NewLabelService(st, app.Metrics, logger),
		Tasks:         service.NewTaskService(st, app.Metrics, logger),
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.Enabled {
		app.Limiter = newLoginLimiter(cfg.RateLimit, app.Redis)
	}

	app.API = api.NewServer(api.Config{
		BaseURL:        cfg.Server.BaseURL,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: trustedProxies,
	}, services, app.Limiter, app.Metrics, logger)

	app.Ops = http.NewServeMux()
	observability.RegisterHealthRoutes(app.Ops, observability.NewHealthChecker(app.DB, app.Redis, version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(app.Ops, app.Registry)
	}

	logger.WithFields(logrus.Fields{
		"driver":       cfg.Database.Driver,
		"base_url":     cfg.Server.BaseURL,
		"rate_limit":   limiterBackend(app.Limiter),
		"metrics":      cfg.Observability.MetricsEnabled,
		"auto_migrate": cfg.Database.AutoMigrate,
	}).Info("Application wired")

	return app, nil
}

// Close releases the database pool and Redis client
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return store.Open(ctx, store.ConnectionConfig{
		Dialect:     store.Dialect(cfg.Driver),
		URL:         cfg.URL,
		MaxConns:    cfg.MaxConns,
		MinConns:    cfg.MinConns,
		Timeout:     cfg.Timeout,
		MaxLifetime: cfg.MaxLifetime,
	})
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// newLoginLimiter picks the Redis limiter when a client is available so that
// every replica shares one budget per client IP
func newLoginLimiter(cfg config.RateLimitConfig, client *redis.Client) middleware.Limiter {
	limits := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RequestsPerWindow,
		WindowDuration:    cfg.Window,
		BurstSize:         cfg.Burst,
	}
	if client != nil {
		return middleware.NewDistributedRateLimiter(client, limits, "")
	}
	return middleware.NewRateLimiter(limits)
}

func limiterBackend(limiter middleware.Limiter) string {
	if limiter == nil {
		return "disabled"
	}
	return limiter.Backend()
}
