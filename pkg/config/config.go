package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// ConfigFileEnv names the environment variable pointing at a YAML config file
const ConfigFileEnv = "TASKBOARD_CONFIG"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Cache         CacheConfig         `yaml:"cache"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	Redis         RedisConfig         `yaml:"redis"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	BaseURL         string        `yaml:"base-url"`
	ReadTimeout     time.Duration `yaml:"read-timeout"`
	WriteTimeout    time.Duration `yaml:"write-timeout"`
	IdleTimeout     time.Duration `yaml:"idle-timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	MaxBodyBytes    int64         `yaml:"max-body-bytes"`

	// Health/metrics server (separate port for k8s probes)
	OpsPort string `yaml:"ops-port"`
}

// DatabaseConfig holds the relational store settings
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite3"
	Driver      string        `yaml:"driver"`
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max-conns"`
	MinConns    int           `yaml:"min-conns"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLifetime time.Duration `yaml:"max-lifetime"`
	AutoMigrate bool          `yaml:"auto-migrate"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt-secret"`
	JWTExpiration time.Duration `yaml:"jwt-expiration"`
}

// CacheConfig sizes the identity cache used by the authorization filter
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// RateLimitConfig throttles login attempts per client
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests-per-window"`
	Window            time.Duration `yaml:"window"`
	Burst             int           `yaml:"burst"`
	// TrustedProxies lists proxy IPs or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed
	TrustedProxies    []string      `yaml:"trusted-proxies"`
}

// RedisConfig enables the distributed rate limiter when URL is set
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log-level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics-enabled"`

	// Environment names the deployment (production, staging...) in telemetry
	Environment string `yaml:"environment"`

	// OpenTelemetry
	OTelEnabled     bool    `yaml:"otel-enabled"`
	OTelEndpoint    string  `yaml:"otel-endpoint"`
	OTelServiceName string  `yaml:"otel-service-name"`
	OTelInsecure    bool    `yaml:"otel-insecure"` // Use insecure gRPC connection
	OTelSampleRatio float64 `yaml:"otel-sample-ratio"`
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return parseLogLevel(o.LogLevel)
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			BaseURL:         "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			OpsPort:         "9090",
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			MaxConns:    20,
			MinConns:    2,
			Timeout:     5 * time.Second,
			MaxLifetime: 30 * time.Minute,
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			JWTExpiration: 24 * time.Hour,
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 20,
			Window:            time.Minute,
			Burst:             5,
		},
		Observability: ObservabilityConfig{
			LogLevel:        "info",
			MetricsEnabled:  true,
			Environment:     "development",
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "taskboard",
			OTelInsecure:    true,
			OTelSampleRatio: 1,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// and environment variables, in that order of precedence (env wins).
// When path is empty the file named by TASKBOARD_CONFIG is used, if any.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays YAML settings on top of the current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays TASKBOARD_* environment variables
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("TASKBOARD_HOST", c.Server.Host)
	c.Server.Port = getEnv("TASKBOARD_PORT", c.Server.Port)
	c.Server.OpsPort = getEnv("TASKBOARD_OPS_PORT", c.Server.OpsPort)
	c.Server.BaseURL = getEnv("TASKBOARD_BASE_URL", c.Server.BaseURL)
	c.Server.ReadTimeout = getEnvDuration("TASKBOARD_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("TASKBOARD_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("TASKBOARD_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("TASKBOARD_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.MaxBodyBytes = getEnvInt64("TASKBOARD_MAX_BODY_BYTES", c.Server.MaxBodyBytes)

	c.Database.Driver = getEnv("TASKBOARD_DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("TASKBOARD_DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("TASKBOARD_DATABASE_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvInt("TASKBOARD_DATABASE_MIN_CONNS", c.Database.MinConns)
	c.Database.Timeout = getEnvDuration("TASKBOARD_DATABASE_TIMEOUT", c.Database.Timeout)
	c.Database.MaxLifetime = getEnvDuration("TASKBOARD_DATABASE_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.AutoMigrate = getEnvBool("TASKBOARD_DATABASE_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Auth.JWTSecret = getEnv("TASKBOARD_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTExpiration = getEnvDuration("TASKBOARD_JWT_EXPIRATION", c.Auth.JWTExpiration)

	c.Cache.Size = getEnvInt("TASKBOARD_CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("TASKBOARD_CACHE_TTL", c.Cache.TTL)

	c.RateLimit.Enabled = getEnvBool("TASKBOARD_LOGIN_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerWindow = getEnvInt("TASKBOARD_LOGIN_RATE_LIMIT", c.RateLimit.RequestsPerWindow)
	c.RateLimit.Window = getEnvDuration("TASKBOARD_LOGIN_RATE_WINDOW", c.RateLimit.Window)
	c.RateLimit.Burst = getEnvInt("TASKBOARD_LOGIN_RATE_BURST", c.RateLimit.Burst)
	c.RateLimit.TrustedProxies = getEnvList("TASKBOARD_LOGIN_TRUSTED_PROXIES", c.RateLimit.TrustedProxies)

	c.Redis.URL = getEnv("TASKBOARD_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("TASKBOARD_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("TASKBOARD_REDIS_DB", c.Redis.DB)

	c.Observability.LogLevel = getEnv("TASKBOARD_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("TASKBOARD_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("TASKBOARD_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("TASKBOARD_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("TASKBOARD_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelInsecure = getEnvBool("TASKBOARD_OTEL_INSECURE", c.Observability.OTelInsecure)
	c.Observability.OTelSampleRatio = getEnvFloat("TASKBOARD_OTEL_SAMPLE_RATIO", c.Observability.OTelSampleRatio)
	c.Observability.Environment = getEnv("TASKBOARD_ENVIRONMENT", c.Observability.Environment)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.OpsPort == "" {
		return fmt.Errorf("ops port is required")
	}
	if c.Server.Port == c.Server.OpsPort {
		return fmt.Errorf("server port and ops port must be different")
	}
	if c.Server.BaseURL != "" {
		if !strings.HasPrefix(c.Server.BaseURL, "/") {
			return fmt.Errorf("base url must start with '/': %s", c.Server.BaseURL)
		}
		if strings.HasSuffix(c.Server.BaseURL, "/") {
			return fmt.Errorf("base url must not end with '/': %s", c.Server.BaseURL)
		}
	}

	// Validate database config
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database max conns must be positive")
	}

	// Validate auth config
	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", auth.MinSecretLength)
	}
	if c.Auth.JWTExpiration <= 0 {
		return fmt.Errorf("jwt expiration must be positive")
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("login rate limit requires positive requests per window and window")
		}
		if _, err := middleware.ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
			return err
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio < 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat reads a float64 environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList reads a comma-separated list; an unset variable keeps the default
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
