package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	gateway "wsgateway/internal/microservices/websocket"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Listening surface
	WSHost string `env:"WS_HOST" default:"0.0.0.0"`
	WSPort int    `env:"WS_PORT" default:"8000"`
	WSPath string `env:"WS_PATH" default:"/connect"`

	// Sessions
	SendQueueSize  int           `env:"SEND_QUEUE_SIZE" default:"128"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" default:"120s"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" default:"120s"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" default:"5s"`
	WriteWait      time.Duration `env:"WRITE_WAIT" default:"10s"`
	MaxMessageSize int64         `env:"MAX_MESSAGE_SIZE" default:"1048576"`

	// Inbound rate limit per session, 0 disables it
	RateLimit float64 `env:"RATE_LIMIT" default:"0"`
	RateBurst int     `env:"RATE_BURST" default:"20"`

	// Authentication, empty secret disables it
	JWTSecret string `env:"JWT_SECRET"`

	// Monitoring
	MetricsEnabled bool   `env:"METRICS_ENABLED" default:"true"`
	MetricsPath    string `env:"METRICS_PATH" default:"/metrics"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// LoadConfig loads configuration from an optional .env file and the environment
func LoadConfig() (*Config, error) {
	// a missing .env is fine, system env vars still apply
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	config := &Config{}

	loadEnvString(&config.GoEnv, "GO_ENV", "development")

	// Listening surface
	loadEnvString(&config.WSHost, "WS_HOST", "0.0.0.0")
	if err := loadEnvInt(&config.WSPort, "WS_PORT", 8000); err != nil {
		return nil, err
	}
	loadEnvString(&config.WSPath, "WS_PATH", "/connect")

	// Sessions
	if err := loadEnvInt(&config.SendQueueSize, "SEND_QUEUE_SIZE", gateway.DefaultSendQueueSize); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.SessionTimeout, "SESSION_TIMEOUT", gateway.DefaultSessionTimeout); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.SweepInterval, "SWEEP_INTERVAL", gateway.DefaultSweepInterval); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ShutdownGrace, "SHUTDOWN_GRACE", gateway.DefaultShutdownGrace); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.WriteWait, "WRITE_WAIT", gateway.DefaultWriteWait); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&config.MaxMessageSize, "MAX_MESSAGE_SIZE", gateway.DefaultMaxMessageSize); err != nil {
		return nil, err
	}

	// Rate limit
	if err := loadEnvFloat(&config.RateLimit, "RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RateBurst, "RATE_BURST", 20); err != nil {
		return nil, err
	}

	// Authentication
	loadEnvString(&config.JWTSecret, "JWT_SECRET", "")

	// Monitoring
	if err := loadEnvBool(&config.MetricsEnabled, "METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	loadEnvString(&config.MetricsPath, "METRICS_PATH", "/metrics")

	// Logging
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "text")

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.WSPort < 1 || c.WSPort > 65535 {
		errors = append(errors, "WS_PORT must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		errors = append(errors, "WS_PATH must start with /")
	}
	if c.SendQueueSize < 1 {
		errors = append(errors, "SEND_QUEUE_SIZE must be positive")
	}
	if c.SessionTimeout <= 0 {
		errors = append(errors, "SESSION_TIMEOUT must be positive")
	}
	if c.SweepInterval <= 0 {
		errors = append(errors, "SWEEP_INTERVAL must be positive")
	}
	if c.ShutdownGrace <= 0 {
		errors = append(errors, "SHUTDOWN_GRACE must be positive")
	}
	if c.WriteWait <= 0 {
		errors = append(errors, "WRITE_WAIT must be positive")
	}
	if c.MaxMessageSize < 1 {
		errors = append(errors, "MAX_MESSAGE_SIZE must be positive")
	}
	if c.RateLimit < 0 {
		errors = append(errors, "RATE_LIMIT must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errors = append(errors, "RATE_BURST must be positive when RATE_LIMIT is set")
	}

	// short HMAC secrets are trivially brute forced
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		errors = append(errors, "METRICS_PATH must start with /")
	}
	if c.MetricsEnabled && c.MetricsPath == c.WSPath {
		errors = append(errors, "METRICS_PATH must differ from WS_PATH")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// AuthEnabled reports whether upgrade requests must carry a JWT
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// ListenAddr returns host:port for the HTTP listener
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.WSHost, c.WSPort)
}

// GatewayOptions maps the loaded configuration onto the gateway server options
func (c *Config) GatewayOptions() gateway.Options {
	return gateway.Options{
		SendQueueSize:  c.SendQueueSize,
		SessionTimeout: c.SessionTimeout,
		SweepInterval:  c.SweepInterval,
		ShutdownGrace:  c.ShutdownGrace,
		WriteWait:      c.WriteWait,
		MaxMessageSize: c.MaxMessageSize,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
	}
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
