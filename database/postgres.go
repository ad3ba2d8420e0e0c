// Package database provides database client utilities.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	// URL is a full connection string. When set, the fields below are ignored.
	URL string

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPostgresConfig returns sensible defaults.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Port:            5432,
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
}

// DSN returns the connection string for the configuration.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
		User:   url.UserPassword(c.User, c.Password),
	}
	q := url.Values{}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// PoolConfig parses the configuration into a pgxpool configuration.
func (c PostgresConfig) PoolConfig() (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	if c.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = c.ConnectTimeout
	}
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = make(map[string]string, 1)
	}
	pcfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	if c.MaxConns > 0 {
		pcfg.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pcfg.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = c.MaxConnIdleTime
	}
	pcfg.HealthCheckPeriod = 30 * time.Second

	return pcfg, nil
}

// PostgresClient wraps a pgx connection pool.
type PostgresClient struct {
	pool   *pgxpool.Pool
	config PostgresConfig
}

// NewPostgresClient creates a pool and verifies connectivity.
func NewPostgresClient(ctx context.Context, config PostgresConfig) (*PostgresClient, error) {
	pcfg, err := config.PoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresClient{
		pool:   pool,
		config: config,
	}, nil
}

// Pool returns the underlying pool.
func (c *PostgresClient) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping checks the database connection.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close closes every connection in the pool.
func (c *PostgresClient) Close() {
	c.pool.Close()
}

// Exec executes a statement without returning rows.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, query, args...)
}

// Query executes a query and returns rows.
func (c *PostgresClient) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return c.pool.Query(ctx, query, args...)
}

// QueryRow executes a query expected to return at most one row.
func (c *PostgresClient) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return c.pool.QueryRow(ctx, query, args...)
}

// WithTransaction executes fn within a transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
func (c *PostgresClient) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit(ctx)
}

// Stats returns pool statistics.
func (c *PostgresClient) Stats() *pgxpool.Stat {
	return c.pool.Stat()
}

// Retry-enabled operations

// ExecWithRetry executes a statement with retry logic.
func (c *PostgresClient) ExecWithRetry(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return RetryWithResult(ctx, sqlRetryConfig(), func() (pgconn.CommandTag, error) {
		return c.pool.Exec(ctx, query, args...)
	})
}

// QueryRowWithRetry returns a row whose Scan retries the whole query on
// transient failures.
func (c *PostgresClient) QueryRowWithRetry(ctx context.Context, query string, args ...any) *RetryableRow {
	return &RetryableRow{
		client: c,
		ctx:    ctx,
		query:  query,
		args:   args,
	}
}

// RetryableRow wraps a row query with retry capability.
type RetryableRow struct {
	client *PostgresClient
	ctx    context.Context
	query  string
	args   []any
}

// Scan executes the query with retry and scans the result.
func (r *RetryableRow) Scan(dest ...any) error {
	return RetrySQLOperation(r.ctx, func() error {
		return r.client.pool.QueryRow(r.ctx, r.query, r.args...).Scan(dest...)
	})
}

// PingWithRetry checks the database connection with retry logic.
func (c *PostgresClient) PingWithRetry(ctx context.Context) error {
	return RetrySQLOperation(ctx, func() error {
		return c.pool.Ping(ctx)
	})
}

// WithTransactionRetry runs WithTransaction, retrying the whole transaction
// on transient failures.
func (c *PostgresClient) WithTransactionRetry(ctx context.Context, fn func(pgx.Tx) error) error {
	return RetrySQLOperation(ctx, func() error {
		return c.WithTransaction(ctx, fn)
	})
}
