package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       0.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", config.MaxRetries)
	}
	if config.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", config.InitialDelay)
	}
	if config.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", config.MaxDelay)
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return errors.New("service unavailable")
	})
	if err == nil {
		t.Fatal("expected error after max retries")
	}
	if err.Error() != "max retries (3) exceeded: service unavailable" {
		t.Errorf("unexpected error message: %v", err)
	}
	if attempts != 4 { // Initial + 3 retries
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := fastRetryConfig()
	config.MaxRetries = 5
	config.InitialDelay = 100 * time.Millisecond

	attempts := 0
	err := Retry(ctx, config, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("temporary failure")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0
	uniqueViolation := &pgconn.PgError{Code: "23505", Message: "duplicate key"}

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return fmt.Errorf("insert: %w", uniqueViolation)
	})
	if !errors.Is(err, uniqueViolation) {
		t.Errorf("expected the unique violation, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (non-retryable), got %d", attempts)
	}
}

func TestCalculateDelay(t *testing.T) {
	base := RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first retry", 0, 100 * time.Millisecond},
		{"second retry", 1, 200 * time.Millisecond},
		{"capped at max delay", 10, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateDelay(base, tt.attempt); got != tt.want {
				t.Errorf("expected delay=%v, got %v", tt.want, got)
			}
		})
	}

	t.Run("with jitter", func(t *testing.T) {
		config := base
		config.Jitter = 0.2
		delay := calculateDelay(config, 0)
		if delay < 80*time.Millisecond || delay > 120*time.Millisecond {
			t.Errorf("expected delay between 80ms and 120ms, got %v", delay)
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"no rows", fmt.Errorf("get record: %w", pgx.ErrNoRows), false},
		{"cache miss", ErrKeyNotFound, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"i/o timeout", errors.New("read tcp: i/o timeout"), true},
		{"unknown error", errors.New("unknown error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, got)
			}
		})
	}
}

func TestIsRetryable_AzureErrors(t *testing.T) {
	tests := []struct {
		statusCode int
		retryable  bool
	}{
		{408, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{403, false},
		{404, false},
		{409, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.statusCode), func(t *testing.T) {
			respErr := &azcore.ResponseError{StatusCode: tt.statusCode}
			if got := IsRetryable(respErr); got != tt.retryable {
				t.Errorf("for status %d, expected retryable=%v, got %v", tt.statusCode, tt.retryable, got)
			}
		})
	}
}

func TestRetryWithResult(t *testing.T) {
	attempts := 0
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || attempts != 2 {
		t.Errorf("got %d after %d attempts, want 42 after 2", got, attempts)
	}
}

func TestRetrySQLOperation(t *testing.T) {
	attempts := 0
	err := RetrySQLOperation(context.Background(), func() error {
		attempts++
		return nil
	})
	if err != nil || attempts != 1 {
		t.Errorf("RetrySQLOperation: err=%v attempts=%d", err, attempts)
	}
}
