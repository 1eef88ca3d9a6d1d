// Package cli provides the taskboard command-line interface and composition
// root.
//
// # Commands
//
// serve: run the REST API and the ops server until SIGINT/SIGTERM
//
//	taskboard serve --config /etc/taskboard.yaml
//
// migrate: apply pending schema migrations and exit
//
//	TASKBOARD_DATABASE_URL=postgres://... taskboard migrate
//
// version: print the build version
//
// Configuration comes from defaults, the YAML file named by --config (or
// $TASKBOARD_CONFIG) and TASKBOARD_* environment variables; see pkg/config.
//
// # Wiring
//
// NewApp builds every dependency explicitly: store, password hasher, token
// manager, services, login limiter (Redis-backed when redis.url is set) and
// the API server. Serve adds OpenTelemetry, the HTTP servers and graceful
// shutdown on top.
package cli
