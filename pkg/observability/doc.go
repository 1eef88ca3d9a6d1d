// Package observability provides logging, metrics, tracing, health checks and
// graceful shutdown for the taskboard server.
//
// # Logging
//
// NewLogger returns a JSON logrus logger. Request-scoped entries carrying the
// request id are stored in the context by the HTTP logging middleware and
// retrieved with FromContext:
//
//	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
//	observability.FromContext(r.Context(), logger).WithField("task_id", id).Info("Task created")
//
// # Metrics
//
// Prometheus collectors are registered on a caller supplied registry and
// exposed on the ops port:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	observability.RegisterMetricsEndpoint(opsMux, registry)
//
// HTTP series are labelled with the gorilla/mux route template, not the raw
// path.
//
// # Health Checks
//
//	/health        readiness (alias)
//	/health/live   process is up
//	/health/ready  database reachable; Redis down only degrades
//
// # Tracing
//
// StartTelemetry installs OTLP/gRPC trace and metric exporters. Its resource
// carries the deployment environment, database dialect and API base URL.
// Services open spans with Tracer(); the API handler is wrapped with otelhttp
// by cli.Serve, so service spans nest under the request span.
//
// # Shutdown
//
//	ctx, stop := observability.ListenSignals(context.Background())
//	defer stop()
//	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
//	sm.AddServer(apiServer)
//	sm.RegisterShutdownFunc(func(context.Context) error { return db.Close() })
//	err := sm.WaitForShutdown(ctx)
package observability
