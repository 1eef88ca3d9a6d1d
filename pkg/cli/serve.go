package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/taskboard/pkg/config"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// dbStatsInterval is how often connection pool gauges are refreshed
const dbStatsInterval = 15 * time.Second

func newServeCommand(load loader, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the ops (health/metrics) server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := observability.ListenSignals(cmd.Context())
			defer stop()
			return Serve(ctx, cfg, logger, version)
		},
	}
}

// Serve runs both HTTP servers until ctx is cancelled, then drains them and
// releases resources
func Serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger, version string) error {
	var telemetry *observability.Telemetry
	if cfg.Observability.OTelEnabled {
		var err error
		telemetry, err = observability.StartTelemetry(ctx, observability.TelemetryConfig{
			Endpoint:        cfg.Observability.OTelEndpoint,
			Insecure:        cfg.Observability.OTelInsecure,
			ServiceName:     cfg.Observability.OTelServiceName,
			ServiceVersion:  version,
			Environment:     cfg.Observability.Environment,
			SampleRatio:     cfg.Observability.OTelSampleRatio,
			DatabaseDialect: cfg.Database.Driver,
			BaseURL:         cfg.Server.BaseURL,
		}, logger)
		if err != nil {
			return err
		}
	}

	app, err := NewApp(ctx, cfg, logger, version)
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return err
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(app.API, "taskboard"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	opsServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.OpsPort),
		Handler:     app.Ops,
		ReadTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.AddServer(apiServer)
	shutdown.AddServer(opsServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return app.Close() })
	shutdown.RegisterShutdownFunc(telemetry.Shutdown)

	g, gctx := errgroup.WithContext(ctx)

	if limiter, ok := app.Limiter.(*middleware.RateLimiter); ok {
		limiter.StartCleanup(gctx, logger)
	}
	if app.Metrics != nil {
		g.Go(func() error {
			defer observability.RecoverPanic(logger, "db stats collector")
			collectDBStats(gctx, app)
			return nil
		})
	}

	g.Go(func() error { return listen(apiServer, logger, "API") })
	g.Go(func() error { return listen(opsServer, logger, "ops") })
	g.Go(func() error {
		<-gctx.Done()
		return shutdown.Shutdown(context.Background())
	})

	return g.Wait()
}

func listen(server *http.Server, logger *logrus.Logger, name string) error {
	logger.WithField("addr", server.Addr).Infof("Starting %s server", name)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Errorf("%s server failed", name)
		return err
	}
	return nil
}

func collectDBStats(ctx context.Context, app *App) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()

	app.Metrics.RecordDBStats(app.DB)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Metrics.RecordDBStats(app.DB)
		}
	}
}
