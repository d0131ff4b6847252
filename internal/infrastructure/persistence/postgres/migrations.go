package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migrationLockKey identifies the advisory lock held while migrating, so
// several instances booting against one database apply the schema once.
const migrationLockKey int64 = 0x73747564656e7473

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// Migrator applies the schema the repositories expect.
type Migrator struct {
	conn       *Connection
	migrations []migration
}

// NewMigrator creates a Migrator for the built-in schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: schema}
}

// Migrate applies every migration newer than the recorded version inside one
// transaction and reports how many it applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	applied := 0
	err := m.conn.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`); err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}

		var current int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		for _, mig := range m.migrations {
			if mig.version <= current {
				continue
			}
			if _, err := tx.Exec(ctx, mig.sql); err != nil {
				return fmt.Errorf("version %d %s: %w", mig.version, mig.name, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
				mig.version, mig.name,
			); err != nil {
				return fmt.Errorf("record version %d: %w", mig.version, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}
	return applied, nil
}

var schema = []migration{
	{
		version: 1,
		name:    "create_groups",
		sql: `
CREATE TABLE IF NOT EXISTS groups (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`,
	},
	{
		version: 2,
		name:    "create_students",
		sql: `
CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    group_id BIGINT NOT NULL REFERENCES groups(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_group_id ON students(group_id);`,
	},
}
