package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/instrumented-api/utils"
)

// Supported HTTP_ROUTER values.
const (
	RouterChi = "chi"
	RouterMux = "mux"
)

// Config represents the complete application configuration
type Config struct {
	Environment   string `validate:"required"`
	AppName       string `validate:"required"`
	Server        ServerConfig
	Observability ObservabilityConfig
	Demo          DemoConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string
	Port               int           `validate:"gte=1,lte=65535"`
	ReadTimeout        time.Duration `validate:"gt=0"`
	WriteTimeout       time.Duration `validate:"gt=0"`
	ShutdownTimeout    time.Duration `validate:"gt=0"`
	Router             string        `validate:"oneof=chi mux"`
	CORSAllowedOrigins []string      `validate:"min=1"`
}

// ObservabilityConfig holds logging, metrics and tracing configuration
type ObservabilityConfig struct {
	LogLevel          string `validate:"required"`
	LogFormat         string `validate:"oneof=json console text"`
	LogCorrelation    bool
	MetricsPath       string `validate:"startswith=/"`
	MetricsNamespace  string `validate:"required"`
	MetricsRuntime    bool
	TracingEnabled    bool
	TracingEndpoint   string  `validate:"required_if=TracingEnabled true"`
	TracingInsecure   bool
	TracingSampleRate float64 `validate:"gte=0,lte=1"`
}

// DemoConfig tunes the synthetic workloads served by the demo endpoints.
type DemoConfig struct {
	IODelay        time.Duration `validate:"gte=0"`
	RandomSleepMax time.Duration `validate:"gte=0"`
	CPUIterations  int           `validate:"gte=0"`
	// ChainTargets are the URLs called by /chain. Empty means the service
	// calls its own /, /io_task and /cpu_task.
	ChainTargets []string `validate:"dive,url"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		AppName:     getEnv("APP_NAME", "app"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getPort(),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			Router:             strings.ToLower(getEnv("HTTP_ROUTER", RouterChi)),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Observability: ObservabilityConfig{
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LogFormat:         getEnv("LOG_FORMAT", "json"),
			LogCorrelation:    getEnvAsBool("LOG_CORRELATION", true),
			MetricsPath:       getEnv("METRICS_PATH", "/metrics"),
			MetricsNamespace:  getEnv("METRICS_NAMESPACE", "api"),
			MetricsRuntime:    getEnvAsBool("METRICS_RUNTIME", true),
			TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
			TracingEndpoint:   getEnv("OTLP_GRPC_ENDPOINT", "localhost:4317"),
			TracingInsecure:   getEnvAsBool("TRACING_INSECURE", true),
			TracingSampleRate: getEnvAsFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Demo: DemoConfig{
			IODelay:        getEnvAsDuration("DEMO_IO_DELAY", time.Second),
			RandomSleepMax: getEnvAsDuration("DEMO_RANDOM_SLEEP_MAX", time.Second),
			CPUIterations:  getEnvAsInt("DEMO_CPU_ITERATIONS", 10000),
			ChainTargets:   getEnvAsList("DEMO_CHAIN_TARGETS", nil),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags of the whole configuration tree
func (c *Config) Validate() error {
	return utils.ValidateStruct(c)
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SelfURL is the base URL the service uses to call itself.
func (c *ServerConfig) SelfURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
