package database

import (
	"context"
	"fmt"
	"time"

	"github.com/consorcio/emissions/config"
	"github.com/consorcio/emissions/logging"
)

// Connections holds the service's data store connections.
type Connections struct {
	Postgres *PostgresClient
	Redis    *RedisClient
	Config   *ConnectionConfig
}

// ConnectionConfig holds the configuration of every data store.
type ConnectionConfig struct {
	Postgres PostgresConfig

	// Redis is optional; an empty host disables it.
	Redis RedisConfig

	// Connection attempts at startup
	MaxRetries int
	RetryDelay time.Duration
}

// RedisEnabled reports whether Redis is configured.
func (c *ConnectionConfig) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// ConnectionConfigFromConfig builds a ConnectionConfig from the service configuration.
func ConnectionConfigFromConfig(cfg *config.Config) *ConnectionConfig {
	pg := DefaultPostgresConfig()
	pg.URL = cfg.DatabaseURL
	pg.Host = cfg.PostgresHost
	pg.Port = cfg.PostgresPort
	pg.User = cfg.PostgresUser
	pg.Password = cfg.PostgresPassword
	pg.Database = cfg.PostgresDB
	pg.SSLMode = cfg.PostgresSSLMode

	redis := DefaultRedisConfig()
	redis.Host = cfg.RedisHost
	redis.Port = cfg.RedisPort
	redis.Password = cfg.RedisPassword
	redis.TLSEnabled = cfg.RedisTLS

	return &ConnectionConfig{
		Postgres:   pg,
		Redis:      redis,
		MaxRetries: config.GetEnvInt("DB_MAX_RETRIES", 5),
		RetryDelay: config.GetEnvDuration("DB_RETRY_DELAY", time.Second),
	}
}

// retryConfig spaces startup attempts evenly; databases started alongside
// the service usually need a few seconds.
func (c *ConnectionConfig) retryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   c.MaxRetries,
		InitialDelay: c.RetryDelay,
		MaxDelay:     c.RetryDelay,
		Multiplier:   1,
	}
}

// NewConnections opens every configured data store.
func NewConnections(ctx context.Context, cfg *ConnectionConfig, logger *logging.Logger) (*Connections, error) {
	conns := &Connections{Config: cfg}

	pg, err := RetryWithResult(ctx, cfg.retryConfig(), func() (*PostgresClient, error) {
		client, err := NewPostgresClient(ctx, cfg.Postgres)
		if err != nil {
			logger.Warn("postgres connection attempt failed", "error", err.Error())
		}
		return client, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	conns.Postgres = pg
	logger.Info("connected to PostgreSQL")

	if cfg.RedisEnabled() {
		rc, err := RetryWithResult(ctx, cfg.retryConfig(), func() (*RedisClient, error) {
			client, err := NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				logger.Warn("redis connection attempt failed", "error", err.Error())
			}
			return client, err
		})
		if err != nil {
			conns.Close(logger)
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		conns.Redis = rc
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr())
	}

	return conns, nil
}

// InitializeAll prepares the data stores after connecting.
func (c *Connections) InitializeAll(ctx context.Context) error {
	if c.Redis != nil {
		if err := NewRedisInitializer(c.Redis).Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}
	return nil
}

// Close closes all connections.
func (c *Connections) Close(logger *logging.Logger) {
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("error closing Redis connection", "error", err.Error())
		}
	}
}

// HealthCheck pings every open connection.
func (c *Connections) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error)

	if c.Postgres != nil {
		results["postgres"] = c.Postgres.Ping(ctx)
	}
	if c.Redis != nil {
		results["redis"] = c.Redis.Ping(ctx)
	}

	return results
}
