package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Migration represents a single migration.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

// MigrationStatus represents the status of a migration.
type MigrationStatus struct {
	Version    int
	Name       string
	Applied    bool
	ExecutedAt *time.Time
}

// Migrator applies versioned SQL scripts and records them in a tracking table.
type Migrator struct {
	db         *PostgresClient
	tableName  string
	migrations []Migration
}

// MigratorOption configures the migrator.
type MigratorOption func(*Migrator)

// WithTableName sets the migrations tracking table name.
func WithTableName(name string) MigratorOption {
	return func(m *Migrator) {
		m.tableName = name
	}
}

// NewMigrator creates a new migrator.
func NewMigrator(db *PostgresClient, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		db:        db,
		tableName: "schema_migrations",
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// LoadFromFS loads migrations from a filesystem, usually an embed.FS.
// Expected names: 001_create_records.up.sql, 001_create_records.down.sql
func (m *Migrator) LoadFromFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		version, rest, ok := parseMigrationName(name)
		if !ok {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		migration, ok := byVersion[version]
		if !ok {
			migration = &Migration{Version: version}
			byVersion[version] = migration
		}

		switch {
		case strings.HasSuffix(rest, ".up.sql"):
			migration.UpScript = string(content)
			migration.Name = strings.TrimSuffix(rest, ".up.sql")
		case strings.HasSuffix(rest, ".down.sql"):
			migration.DownScript = string(content)
		}
	}

	m.migrations = make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		m.migrations = append(m.migrations, *migration)
	}
	m.sort()

	return nil
}

// parseMigrationName splits "001_name.up.sql" into 1 and "name.up.sql".
func parseMigrationName(name string) (int, string, bool) {
	prefix, rest, found := strings.Cut(name, "_")
	if !found {
		return 0, "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	return version, rest, true
}

// AddMigration adds a migration programmatically.
func (m *Migrator) AddMigration(version int, name, up, down string) {
	m.migrations = append(m.migrations, Migration{
		Version:    version,
		Name:       name,
		UpScript:   up,
		DownScript: down,
	})
	m.sort()
}

// Migrations returns the loaded migrations in version order.
func (m *Migrator) Migrations() []Migration {
	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	return out
}

func (m *Migrator) sort() {
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// Initialize creates the migrations tracking table.
func (m *Migrator) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pgx.Identifier{m.tableName}.Sanitize())

	if _, err := m.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// Status returns the migration status.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	executed := make(map[int]time.Time)
	query := fmt.Sprintf("SELECT version, executed_at FROM %s", pgx.Identifier{m.tableName}.Sanitize())
	rows, err := m.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		var executedAt time.Time
		if err := rows.Scan(&version, &executedAt); err != nil {
			return nil, err
		}
		executed[version] = executedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	statuses := make([]MigrationStatus, len(m.migrations))
	for i, migration := range m.migrations {
		status := MigrationStatus{
			Version: migration.Version,
			Name:    migration.Name,
		}
		if t, ok := executed[migration.Version]; ok {
			status.Applied = true
			status.ExecutedAt = &t
		}
		statuses[i] = status
	}

	return statuses, nil
}

// Up runs all pending migrations and returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i, status := range statuses {
		if status.Applied {
			continue
		}

		migration := m.migrations[i]
		if migration.UpScript == "" {
			return applied, fmt.Errorf("migration %d has no up script", migration.Version)
		}

		if err := m.runMigration(ctx, migration, true); err != nil {
			return applied, fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		applied++
	}

	return applied, nil
}

// Down rolls back the last applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	for i := len(statuses) - 1; i >= 0; i-- {
		if !statuses[i].Applied {
			continue
		}
		migration := m.migrations[i]
		if migration.DownScript == "" {
			return fmt.Errorf("migration %d has no down script", migration.Version)
		}
		return m.runMigration(ctx, migration, false)
	}

	return nil
}

// Version returns the highest applied migration version, or 0.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", pgx.Identifier{m.tableName}.Sanitize())

	var version int
	if err := m.db.QueryRow(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return version, nil
}

// runMigration executes one script and updates the tracking table in the
// same transaction. Scripts may hold several statements; without arguments
// pgx sends them over the simple protocol.
func (m *Migrator) runMigration(ctx context.Context, migration Migration, isUp bool) error {
	table := pgx.Identifier{m.tableName}.Sanitize()

	return m.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		script := migration.DownScript
		if isUp {
			script = migration.UpScript
		}

		if strings.TrimSpace(script) != "" {
			if _, err := tx.Exec(ctx, script); err != nil {
				return fmt.Errorf("failed to execute script: %w", err)
			}
		}

		if isUp {
			query := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", table)
			if _, err := tx.Exec(ctx, query, migration.Version, migration.Name); err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			return nil
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE version = $1", table)
		if _, err := tx.Exec(ctx, query, migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}
