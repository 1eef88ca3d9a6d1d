package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/taskboard/pkg/observability"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns true for 'true'", false, "true", true},
		{"returns true for 'TRUE'", false, "TRUE", true},
		{"returns true for '1'", false, "1", true},
		{"returns false for 'false'", true, "false", false},
		{"returns false for garbage", true, "yes please", false},
		{"returns default when unset", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			got := getEnvBool("TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the numeric helpers
func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}
	if got := getEnvInt64("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt64() = %v, want 42", got)
	}

	t.Setenv("TEST_INT", "not-a-number")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %v, want default 7", got)
	}
	if got := getEnvInt64("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt64() with invalid value = %v, want default 7", got)
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"parses seconds", "30s", 30 * time.Second},
		{"parses hours", "2h", 2 * time.Hour},
		{"falls back on invalid", "soon", time.Minute},
		{"falls back when unset", "", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_DURATION", tt.envValue)
			}

			got := getEnvDuration("TEST_DURATION", time.Minute)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvList tests the getEnvList helper function
func TestGetEnvList(t *testing.T) {
	defaults := []string{"127.0.0.1"}

	if got := getEnvList("TEST_LIST_NOT_SET", defaults); len(got) != 1 || got[0] != "127.0.0.1" {
		t.Errorf("unset: got %v, want defaults", got)
	}

	t.Setenv("TEST_LIST", " 10.0.0.1, ,10.0.0.0/8 ")
	got := getEnvList("TEST_LIST", defaults)
	if len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "10.0.0.0/8" {
		t.Errorf("got %v, want [10.0.0.1 10.0.0.0/8]", got)
	}

	t.Setenv("TEST_LIST", "")
	if got := getEnvList("TEST_LIST", defaults); len(got) != 0 {
		t.Errorf("empty value clears the list, got %v", got)
	}
}

// TestParseLogLevel tests the parseLogLevel function
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  observability.LogLevel
	}{
		{"debug", observability.DebugLevel},
		{"DEBUG", observability.DebugLevel},
		{"info", observability.InfoLevel},
		{"warn", observability.WarnLevel},
		{"warning", observability.WarnLevel},
		{"error", observability.ErrorLevel},
		{"verbose", observability.InfoLevel},
		{"", observability.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestLoadConfig_Defaults checks defaults survive when only required values are set
func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost/taskboard")
	t.Setenv("TASKBOARD_JWT_SECRET", testSecret)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.OpsPort != "9090" {
		t.Errorf("unexpected ports %s/%s", cfg.Server.Port, cfg.Server.OpsPort)
	}
	if cfg.Server.BaseURL != "/api" {
		t.Errorf("BaseURL = %q, want /api", cfg.Server.BaseURL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Auth.JWTExpiration != 24*time.Hour {
		t.Errorf("JWTExpiration = %v, want 24h", cfg.Auth.JWTExpiration)
	}
	if cfg.Observability.Level() != observability.InfoLevel {
		t.Errorf("Level() = %v, want info", cfg.Observability.Level())
	}
}

// TestLoadConfig_FileAndEnv checks that env overrides the YAML file
func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	content := `
server:
  port: "8000"
  base-url: /v1
  read-timeout: 5s
database:
  driver: sqlite3
  url: "file:taskboard.db"
auth:
  jwt-secret: "` + testSecret + `"
  jwt-expiration: 1h
cache:
  size: 16
ratelimit:
  trusted-proxies: ["10.0.0.0/8", "192.168.1.5"]
observability:
  log-level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TASKBOARD_PORT", "8001")
	t.Setenv("TASKBOARD_ENVIRONMENT", "staging")
	t.Setenv("TASKBOARD_OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8001" {
		t.Errorf("Port = %q, want env override 8001", cfg.Server.Port)
	}
	if cfg.Server.BaseURL != "/v1" {
		t.Errorf("BaseURL = %q, want /v1", cfg.Server.BaseURL)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout = %v, want default 15s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Driver = %q, want sqlite3", cfg.Database.Driver)
	}
	if cfg.Auth.JWTExpiration != time.Hour {
		t.Errorf("JWTExpiration = %v, want 1h", cfg.Auth.JWTExpiration)
	}
	if cfg.Cache.Size != 16 {
		t.Errorf("Cache.Size = %d, want 16", cfg.Cache.Size)
	}
	if len(cfg.RateLimit.TrustedProxies) != 2 || cfg.RateLimit.TrustedProxies[1] != "192.168.1.5" {
		t.Errorf("TrustedProxies = %v", cfg.RateLimit.TrustedProxies)
	}
	if cfg.Observability.Environment != "staging" {
		t.Errorf("Environment = %q, want staging", cfg.Observability.Environment)
	}
	if cfg.Observability.OTelSampleRatio != 0.25 {
		t.Errorf("OTelSampleRatio = %v, want 0.25", cfg.Observability.OTelSampleRatio)
	}
	if cfg.Observability.Level() != observability.DebugLevel {
		t.Errorf("Level() = %v, want debug", cfg.Observability.Level())
	}
}

// TestLoadConfig_FileFromEnv resolves the file through TASKBOARD_CONFIG
func TestLoadConfig_FileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	content := "database:\n  url: postgres://db/taskboard\nauth:\n  jwt-secret: " + testSecret + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.URL != "postgres://db/taskboard" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

// TestLoadConfig_Errors covers unreadable and invalid inputs
func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost/taskboard")
		t.Setenv("TASKBOARD_JWT_SECRET", "")
		_, err := LoadConfig("")
		if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

// TestValidate tests the Validate method
func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Database.URL = "postgres://localhost/taskboard"
		cfg.Auth.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty base url is allowed", func(c *Config) { c.Server.BaseURL = "" }, ""},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"missing ops port", func(c *Config) { c.Server.OpsPort = "" }, "ops port is required"},
		{"same ports", func(c *Config) { c.Server.OpsPort = c.Server.Port }, "must be different"},
		{"base url without slash", func(c *Config) { c.Server.BaseURL = "api" }, "must start with"},
		{"base url trailing slash", func(c *Config) { c.Server.BaseURL = "/api/" }, "must not end with"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "database URL is required"},
		{"zero max conns", func(c *Config) { c.Database.MaxConns = 0 }, "max conns must be positive"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt secret must be at least"},
		{"zero expiration", func(c *Config) { c.Auth.JWTExpiration = 0 }, "jwt expiration must be positive"},
		{"zero cache", func(c *Config) { c.Cache.Size = 0 }, "cache size must be positive"},
		{"bad rate limit", func(c *Config) { c.RateLimit.Window = 0 }, "login rate limit"},
		{"trusted proxies", func(c *Config) { c.RateLimit.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = []string{"proxy.internal"} }, "invalid trusted proxy"},
		{"disabled rate limit ignores window", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.Window = 0
		}, ""},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}, "OpenTelemetry endpoint is required"},
		{"otel sample ratio above one", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelSampleRatio = 1.5
		}, "sample ratio must be between 0 and 1"},
		{"otel sample ratio ignored when disabled", func(c *Config) { c.Observability.OTelSampleRatio = -1 }, ""},
		{"otel without service name", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = ""
		}, "OpenTelemetry service name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
