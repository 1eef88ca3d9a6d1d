// Package config provides application configuration from a YAML file and
// environment variables.
//
// # Overview
//
// Defaults are applied first, then an optional YAML file (the --config flag or
// TASKBOARD_CONFIG), then TASKBOARD_* environment variables. The result is
// validated before it is returned.
//
// # Configuration Structure
//
// Server settings:
//
//	TASKBOARD_HOST="0.0.0.0"
//	TASKBOARD_PORT="8080"
//	TASKBOARD_OPS_PORT="9090"
//	TASKBOARD_BASE_URL="/api"
//	TASKBOARD_READ_TIMEOUT="15s"
//
// Database settings:
//
//	TASKBOARD_DATABASE_DRIVER="postgres"  # postgres, sqlite3
//	TASKBOARD_DATABASE_URL="postgres://localhost/taskboard?sslmode=disable"
//	TASKBOARD_DATABASE_MAX_CONNS="20"
//	TASKBOARD_DATABASE_AUTO_MIGRATE="true"
//
// Auth settings:
//
//	TASKBOARD_JWT_SECRET="at-least-32-bytes-of-shared-secret"
//	TASKBOARD_JWT_EXPIRATION="24h"
//
// Login throttling (Redis makes it shared across replicas):
//
//	TASKBOARD_LOGIN_RATE_LIMIT="20"
//	TASKBOARD_LOGIN_RATE_WINDOW="1m"
//	TASKBOARD_LOGIN_TRUSTED_PROXIES="10.0.0.0/8,192.168.1.5"
//	TASKBOARD_REDIS_URL="redis://localhost:6379"
//
// Observability settings:
//
//	TASKBOARD_LOG_LEVEL="info"  # debug, info, warn, error
//	TASKBOARD_METRICS_ENABLED="true"
//	TASKBOARD_OTEL_ENABLED="true"
//	TASKBOARD_OTEL_ENDPOINT="otel-collector:4317"
//	TASKBOARD_OTEL_SAMPLE_RATIO="0.1"
//	TASKBOARD_ENVIRONMENT="production"
//
// The same keys in YAML:
//
//	server:
//	  port: "8080"
//	  base-url: /api
//	database:
//	  driver: sqlite3
//	  url: file:taskboard.db
//	auth:
//	  jwt-secret: ...
//	  jwt-expiration: 24h
//
// # Usage Example
//
//	cfg, err := config.LoadConfig(configPath)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/store: Uses database configuration
//   - pkg/observability: Uses observability configuration
package config
