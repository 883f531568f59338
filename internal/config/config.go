package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/renewo/renewo-server/internal/domain/ports"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Secrets   SecretsConfig
	Sweep     SweepConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int

	// AllowedOrigins for CORS; empty disables CORS handling
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32

	// PasswordSecretPath, when set, resolves the password through the secret
	// manager instead of DB_PASSWORD.
	PasswordSecretPath string
}

// SecretsConfig selects and configures the secret manager backend
type SecretsConfig struct {
	// Backend: "env", "local", "aws", "vault"
	Backend string

	// Local backend base directory
	LocalBasePath string

	// AWS backend
	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	// Vault backend
	VaultAddress string
	VaultToken   string
}

// SweepConfig holds the overdue-renewal sweep schedule
type SweepConfig struct {
	// Cron spec for the daily sweep (default: 00:05 every day)
	Schedule string

	// Per-sweep timeout in seconds
	TimeoutSeconds int
}

// RateLimitConfig holds per-IP HTTP rate limiting settings
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables. A .env file in
// the working directory is loaded first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvAsInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "postgres"),
			Password:           getEnv("DB_PASSWORD", ""),
			Database:           getEnv("DB_NAME", "renewo"),
			SSLMode:            getEnv("DB_SSL_MODE", "disable"),
			MaxConns:           int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:           int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			PasswordSecretPath: getEnv("DB_PASSWORD_SECRET_PATH", ""),
		},
		Secrets: SecretsConfig{
			Backend:       getEnv("SECRETS_BACKEND", "env"),
			LocalBasePath: getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:     getEnv("SECRETS_AWS_REGION", "eu-central-1"),
			AWSProfile:    getEnv("SECRETS_AWS_PROFILE", ""),
			AWSEndpoint:   getEnv("SECRETS_AWS_ENDPOINT", ""),
			VaultAddress:  getEnv("SECRETS_VAULT_ADDR", ""),
			VaultToken:    getEnv("SECRETS_VAULT_TOKEN", ""),
		},
		Sweep: SweepConfig{
			Schedule:       getEnv("SWEEP_SCHEDULE", "5 0 * * *"),
			TimeoutSeconds: getEnvAsInt("SWEEP_TIMEOUT_SECONDS", 60),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" && cfg.Database.PasswordSecretPath == "" {
		return nil, fmt.Errorf("DB_PASSWORD or DB_PASSWORD_SECRET_PATH is required")
	}
	if cfg.Secrets.Backend == "vault" && cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("SECRETS_VAULT_ADDR is required for the vault backend")
	}

	return cfg, nil
}

// ResolveDatabasePassword fills Database.Password through the secret manager
// when a secret path is configured
func (c *Config) ResolveDatabasePassword(ctx context.Context, secrets ports.SecretManager) error {
	if c.Database.PasswordSecretPath == "" {
		return nil
	}

	secret, err := secrets.GetSecret(ctx, c.Database.PasswordSecretPath)
	if err != nil {
		return fmt.Errorf("resolve database password: %w", err)
	}

	c.Database.Password = secret.Value
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

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

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
