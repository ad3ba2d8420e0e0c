package database

import (
	"net/url"
	"testing"
	"time"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Host = "db.internal"
	cfg.Database = "emissions"
	cfg.User = "app"
	cfg.Password = "p@ss word"

	u, err := url.Parse(cfg.DSN())
	if err != nil {
		t.Fatalf("DSN() is not a URL: %v", err)
	}

	if u.Scheme != "postgres" {
		t.Errorf("scheme = %s, want postgres", u.Scheme)
	}
	if u.Host != "db.internal:5432" {
		t.Errorf("host = %s, want db.internal:5432", u.Host)
	}
	if u.Path != "/emissions" {
		t.Errorf("path = %s, want /emissions", u.Path)
	}
	if pw, _ := u.User.Password(); pw != "p@ss word" {
		t.Errorf("password not escaped correctly: %q", pw)
	}
	if u.Query().Get("sslmode") != "disable" {
		t.Errorf("sslmode = %s, want disable", u.Query().Get("sslmode"))
	}
}

func TestPostgresConfig_DSN_URLWins(t *testing.T) {
	cfg := PostgresConfig{URL: "postgres://a:b@h:1/d?sslmode=require", Host: "ignored"}
	if got := cfg.DSN(); got != cfg.URL {
		t.Errorf("DSN() = %s, want the configured URL", got)
	}
}

func TestPostgresConfig_PoolConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.Host = "localhost"
	cfg.Database = "emissions"
	cfg.User = "app"
	cfg.MaxConns = 7
	cfg.ConnectTimeout = 3 * time.Second

	pcfg, err := cfg.PoolConfig()
	if err != nil {
		t.Fatalf("PoolConfig() error = %v", err)
	}

	if pcfg.MaxConns != 7 {
		t.Errorf("MaxConns = %d, want 7", pcfg.MaxConns)
	}
	if pcfg.ConnConfig.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", pcfg.ConnConfig.ConnectTimeout)
	}
	if pcfg.ConnConfig.RuntimeParams["timezone"] != "UTC" {
		t.Error("timezone should be pinned to UTC")
	}
	if pcfg.ConnConfig.Database != "emissions" {
		t.Errorf("Database = %s, want emissions", pcfg.ConnConfig.Database)
	}
}

func TestPostgresConfig_PoolConfig_Invalid(t *testing.T) {
	cfg := PostgresConfig{URL: "postgres://%zz"}
	if _, err := cfg.PoolConfig(); err == nil {
		t.Error("expected error for malformed URL")
	}
}
