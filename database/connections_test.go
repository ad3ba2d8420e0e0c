package database

import (
	"context"
	"testing"
	"time"

	"github.com/consorcio/emissions/config"
)

func TestConnectionConfigFromConfig(t *testing.T) {
	t.Setenv("DB_MAX_RETRIES", "2")
	t.Setenv("DB_RETRY_DELAY", "250ms")

	cfg := &config.Config{
		PostgresHost:     "db.internal",
		PostgresPort:     6543,
		PostgresUser:     "app",
		PostgresPassword: "secret",
		PostgresDB:       "emissions",
		PostgresSSLMode:  "require",
		RedisHost:        "cache.internal",
		RedisPort:        6380,
		RedisTLS:         true,
	}

	conn := ConnectionConfigFromConfig(cfg)

	if conn.Postgres.Host != "db.internal" || conn.Postgres.Port != 6543 {
		t.Errorf("unexpected postgres address %s:%d", conn.Postgres.Host, conn.Postgres.Port)
	}
	if conn.Postgres.SSLMode != "require" {
		t.Errorf("SSLMode = %s, want require", conn.Postgres.SSLMode)
	}
	if conn.Postgres.MaxConns != DefaultPostgresConfig().MaxConns {
		t.Error("pool defaults should be kept")
	}
	if !conn.RedisEnabled() || !conn.Redis.TLSEnabled {
		t.Error("Redis should be enabled with TLS")
	}
	if conn.MaxRetries != 2 || conn.RetryDelay != 250*time.Millisecond {
		t.Errorf("retries = %d every %v", conn.MaxRetries, conn.RetryDelay)
	}
}

func TestConnectionConfig_RedisDisabled(t *testing.T) {
	conn := ConnectionConfigFromConfig(&config.Config{PostgresHost: "localhost"})
	if conn.RedisEnabled() {
		t.Error("Redis should be disabled without a host")
	}
}

func TestConnectionConfig_RetryConfig(t *testing.T) {
	conn := &ConnectionConfig{MaxRetries: 4, RetryDelay: time.Second}
	rc := conn.retryConfig()

	if rc.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d, want 4", rc.MaxRetries)
	}
	for attempt := 0; attempt < 4; attempt++ {
		if d := calculateDelay(rc, attempt); d != time.Second {
			t.Errorf("attempt %d delay = %v, want constant 1s", attempt, d)
		}
	}
}

func TestConnections_HealthCheck_Empty(t *testing.T) {
	conns := &Connections{Config: &ConnectionConfig{}}
	if results := conns.HealthCheck(context.Background()); len(results) != 0 {
		t.Errorf("expected no results without connections, got %v", results)
	}
}
