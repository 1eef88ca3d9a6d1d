package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect names a supported database/sql driver
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	Dialect     Dialect
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
}

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open opens and pings a connection pool for the configured dialect
func Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error) {
	dsn := config.URL
	switch config.Dialect {
	case Postgres:
	case SQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database dialect: %q", config.Dialect)
	}

	db, err := sql.Open(string(config.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Dialect, err)
	}

	maxConns := config.MaxConns
	if config.Dialect == SQLite && isSQLiteMemory(dsn) {
		// every pooled connection would otherwise see its own empty database
		maxConns = 1
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if config.MinConns > 0 {
		db.SetMaxIdleConns(config.MinConns)
	}
	if config.MaxLifetime > 0 {
		db.SetConnMaxLifetime(config.MaxLifetime)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Dialect, err)
	}

	return db, nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by default
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func isSQLiteMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Store bundles the entity repositories over one database handle. Inside
// InTx the repositories share the transaction.
type Store struct {
	db      *sql.DB
	q       Querier
	dialect Dialect
}

// New creates a Store over an open pool
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, q: db, dialect: dialect}
}

// DB returns the underlying pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect in use
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Users returns the user repository
func (s *Store) Users() *UserStore {
	return &UserStore{q: s.q}
}

// Statuses returns the status repository
func (s *Store) Statuses() *StatusStore {
	return &StatusStore{q: s.q}
}

// Labels returns the label repository
func (s *Store) Labels() *LabelStore {
	return &LabelStore{q: s.q}
}

// Tasks returns the task repository
func (s *Store) Tasks() *TaskStore {
	return &TaskStore{q: s.q}
}

// InTx runs fn inside a transaction; fn's error (or a panic) rolls back
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Store{db: s.db, q: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n arguments
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// int64Args converts ids into query arguments
func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// now is the creation timestamp source; UTC at microsecond precision so values
// round-trip through both drivers unchanged
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// isUniqueViolation reports whether err is a unique constraint failure
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKeyViolation reports whether err is a foreign key constraint failure.
// SQLite reports ON DELETE RESTRICT through its internal FK trigger, so the
// trigger code counts too; the schema defines no triggers of its own.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintTrigger
	}
	return false
}
