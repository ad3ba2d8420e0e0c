// Package config provides configuration loading with Azure Key Vault integration.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration of the emissions service.
type Config struct {
	// Service identification
	ServiceName string
	Environment string
	Version     string

	// HTTP server
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string

	// Per-client limit on emission submissions. Zero keeps the limiter defaults.
	SubmitRatePerSecond int
	SubmitBurst         int

	// Logging
	LogLevel string

	// Azure
	KeyVaultName   string
	AppInsightsKey string
	// AppInsightsConnectionString routes OpenTelemetry data to Application Insights.
	AppInsightsConnectionString string

	// PostgreSQL. DatabaseURL wins over the individual fields when set.
	DatabaseURL      string
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost       string
	RedisPort       int
	RedisPassword   string
	RedisTLS        bool
	SummaryCacheTTL time.Duration

	// Service Bus
	ServiceBusConnectionString string
	ServiceBusNS               string
	ServiceBusTopic            string

	// Export
	ExportStorageAccountURL       string
	ExportStorageConnectionString string
	ExportContainer               string
	ExportDir                     string

	// JWT
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Telemetry
	OTLPEndpoint string
}

// Load loads configuration from environment variables.
// For production, secrets are loaded from Azure Key Vault.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		ServiceName:        serviceName,
		Environment:        getEnv("ENVIRONMENT", "development"),
		Version:            getEnv("VERSION", "0.0.1"),
		Port:               getEnvInt("PORT", 8080),
		ReadTimeout:        getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:       getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:        getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		KeyVaultName:       getEnv("KEY_VAULT_NAME", ""),
	}
	cfg.loadSettings()

	// Load secrets from Key Vault in production
	if cfg.KeyVaultName != "" && !cfg.IsDevelopment() {
		if err := cfg.loadFromKeyVault(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to load secrets from Key Vault: %w", err)
		}
	} else {
		cfg.loadFromEnv()
	}

	if cfg.JWTSecret == "" && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("JWT_SECRET is required in %s", cfg.Environment)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(serviceName string) *Config {
	cfg, err := Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// loadSettings reads the non-secret values.
func (c *Config) loadSettings() {
	c.PostgresHost = getEnv("POSTGRESQL_HOST", "localhost")
	c.PostgresPort = getEnvInt("POSTGRESQL_PORT", 5432)
	c.PostgresUser = getEnv("POSTGRESQL_USER", "postgres")
	c.PostgresDB = getEnv("POSTGRESQL_DB_NAME", "emissions")
	c.PostgresSSLMode = getEnv("POSTGRESQL_SSLMODE", "disable")

	c.RedisHost = getEnv("REDIS_HOST", "")
	c.RedisPort = getEnvInt("REDIS_PORT", 6379)
	c.RedisTLS = getEnvBool("REDIS_TLS", false)
	c.SummaryCacheTTL = getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute)

	c.ServiceBusNS = getEnv("SERVICEBUS_NAMESPACE", "")
	c.ServiceBusTopic = getEnv("SERVICEBUS_TOPIC", "emissions")

	c.ExportStorageAccountURL = getEnv("EXPORT_STORAGE_ACCOUNT_URL", "")
	c.ExportContainer = getEnv("EXPORT_CONTAINER", "emission-exports")
	c.ExportDir = getEnv("EXPORT_DIR", "exports")

	c.JWTIssuer = getEnv("JWT_ISSUER", "emissions")
	c.JWTAudience = getEnv("JWT_AUDIENCE", "emissions-api")

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	c.SubmitRatePerSecond = getEnvInt("SUBMIT_RATE_LIMIT", 5)
	c.SubmitBurst = getEnvInt("SUBMIT_RATE_BURST", 20)
}

func (c *Config) loadFromEnv() {
	c.AppInsightsKey = getEnv("APPINSIGHTS_INSTRUMENTATIONKEY", "")
	c.AppInsightsConnectionString = getEnv("APPLICATIONINSIGHTS_CONNECTION_STRING", "")
	c.DatabaseURL = getEnv("DATABASE_URL", "")
	c.PostgresPassword = getEnv("POSTGRESQL_PASSWORD", "")
	c.RedisPassword = getEnv("REDIS_PASSWORD", "")
	c.ServiceBusConnectionString = getEnv("SERVICEBUS_CONNECTION_STRING", "")
	c.ExportStorageConnectionString = getEnv("EXPORT_STORAGE_CONNECTION_STRING", "")

	// Only development gets a default secret
	if c.IsDevelopment() {
		c.JWTSecret = getEnv("JWT_SECRET", "development-only-secret-do-not-use-in-prod")
	} else {
		c.JWTSecret = getEnv("JWT_SECRET", "")
	}
}

func (c *Config) loadFromKeyVault(ctx context.Context) error {
	kv, err := NewKeyVaultClient(c.KeyVaultName)
	if err != nil {
		return err
	}
	return c.applySecrets(ctx, kv)
}

// SecretGetter reads a named secret.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// applySecrets fills the secret fields from a secret store. Missing secrets
// fall back to the environment so that optional integrations stay optional.
func (c *Config) applySecrets(ctx context.Context, store SecretGetter) error {
	c.loadFromEnv()

	secrets := map[string]*string{
		"appinsights-key":              &c.AppInsightsKey,
		"appinsights-connection":       &c.AppInsightsConnectionString,
		"database-url":                 &c.DatabaseURL,
		"postgresql-password":          &c.PostgresPassword,
		"redis-password":               &c.RedisPassword,
		"servicebus-connection-string": &c.ServiceBusConnectionString,
		"jwt-secret":                   &c.JWTSecret,
		"export-storage-connection":    &c.ExportStorageConnectionString,
	}

	for name, ptr := range secrets {
		value, err := store.GetSecret(ctx, name)
		if err != nil {
			continue
		}
		*ptr = value
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// ServiceBusEnabled reports whether Service Bus publishing is configured.
func (c *Config) ServiceBusEnabled() bool {
	return c.ServiceBusConnectionString != "" || c.ServiceBusNS != ""
}

// BlobExportEnabled reports whether exports go to Azure Blob Storage
// instead of the local export directory.
func (c *Config) BlobExportEnabled() bool {
	return c.ExportStorageConnectionString != "" || c.ExportStorageAccountURL != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetEnv gets an environment variable with a default value.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

// GetEnvInt gets an environment variable as an integer with a default value.
func GetEnvInt(key string, defaultValue int) int {
	return getEnvInt(key, defaultValue)
}

// GetEnvDuration gets an environment variable as a duration with a default value.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvDuration(key, defaultValue)
}
