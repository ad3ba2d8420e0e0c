package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries).
	MaxRetries int
	// InitialDelay is the initial delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases after each retry.
	Multiplier float64
	// Jitter is the maximum random jitter to add (as a percentage of delay, 0-1).
	Jitter float64
}

// DefaultRetryConfig returns sensible production defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

// Retry executes a function with exponential backoff retry.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	_, err := RetryWithResult(ctx, config, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult executes a function that returns a value with retry.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return result, err
		}

		// Don't sleep after the last attempt
		if attempt == config.MaxRetries {
			break
		}

		delay := calculateDelay(config, attempt)

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", config.MaxRetries, lastErr)
}

// calculateDelay calculates the delay for a given attempt with jitter.
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	// Exponential backoff: initialDelay * multiplier^attempt
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter > 0 {
		jitterAmount := delay * config.Jitter * rand.Float64()
		if rand.Float64() < 0.5 {
			delay -= jitterAmount
		} else {
			delay += jitterAmount
		}
	}

	return time.Duration(delay)
}

// retryableSQLStates lists PostgreSQL error classes and codes worth retrying.
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P03": true, // cannot_connect_now
}

// IsRetryable determines if an error is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors and lookups that found nothing never succeed on retry
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrKeyNotFound) || errors.Is(err, redis.Nil) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions
		return strings.HasPrefix(pgErr.Code, "08") || retryableSQLStates[pgErr.Code]
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"connection timed out",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

func sqlRetryConfig() RetryConfig {
	config := DefaultRetryConfig()
	// Pool connections take longer to come back than a single round trip
	config.InitialDelay = 200 * time.Millisecond
	return config
}

// RetrySQLOperation wraps a PostgreSQL operation with retry logic.
func RetrySQLOperation(ctx context.Context, fn RetryableFunc) error {
	return Retry(ctx, sqlRetryConfig(), fn)
}

func redisRetryConfig() RetryConfig {
	config := DefaultRetryConfig()
	config.InitialDelay = 50 * time.Millisecond
	config.MaxDelay = 2 * time.Second
	return config
}

// RetryRedisOperation wraps a Redis operation with retry logic.
func RetryRedisOperation(ctx context.Context, fn RetryableFunc) error {
	return Retry(ctx, redisRetryConfig(), fn)
}
