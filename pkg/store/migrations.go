package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the schema migrations for a dialect
func GetMigrations(dialect Dialect) ([]Migration, error) {
	switch dialect {
	case Postgres:
		return postgresMigrations, nil
	case SQLite:
		return sqliteMigrations, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect: %q", dialect)
	}
}

var postgresMigrations = []Migration{
	{
		Version:     1,
		Description: "Create users, statuses and labels tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				first_name VARCHAR(50) NOT NULL,
				last_name VARCHAR(50) NOT NULL,
				email VARCHAR(100) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS statuses (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(50) NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS labels (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(50) NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		Version:     2,
		Description: "Create tasks and task_labels tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS tasks (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				description VARCHAR(1000) NOT NULL DEFAULT '',
				status_id BIGINT NOT NULL REFERENCES statuses(id) ON DELETE RESTRICT,
				author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				executor_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_tasks_status_id ON tasks(status_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_author_id ON tasks(author_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_executor_id ON tasks(executor_id);

			CREATE TABLE IF NOT EXISTS task_labels (
				task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				label_id BIGINT NOT NULL REFERENCES labels(id) ON DELETE RESTRICT,
				PRIMARY KEY (task_id, label_id)
			);

			CREATE INDEX IF NOT EXISTS idx_task_labels_label_id ON task_labels(label_id);
		`,
	},
}

var sqliteMigrations = []Migration{
	{
		Version:     1,
		Description: "Create users, statuses and labels tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			);

			CREATE TABLE IF NOT EXISTS statuses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				created_at TIMESTAMP NOT NULL
			);

			CREATE TABLE IF NOT EXISTS labels (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				created_at TIMESTAMP NOT NULL
			);
		`,
	},
	{
		Version:     2,
		Description: "Create tasks and task_labels tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				status_id INTEGER NOT NULL REFERENCES statuses(id) ON DELETE RESTRICT,
				author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				executor_id INTEGER REFERENCES users(id) ON DELETE RESTRICT,
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_tasks_status_id ON tasks(status_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_author_id ON tasks(author_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_executor_id ON tasks(executor_id);

			CREATE TABLE IF NOT EXISTS task_labels (
				task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE RESTRICT,
				PRIMARY KEY (task_id, label_id)
			);

			CREATE INDEX IF NOT EXISTS idx_task_labels_label_id ON task_labels(label_id);
		`,
	},
}

// RunMigrations applies pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect, logger logrus.FieldLogger) error {
	migrations, err := GetMigrations(dialect)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// Create migration tracking table
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		log := logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		})
		log.Info("Running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)",
			migration.Version, migration.Description, now(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Info("Migration completed")
	}

	return nil
}

// AppliedVersions returns the set of recorded migration versions
func AppliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
