// Package store provides the SQL-backed persistence for users and notes.
//
// SQLite (mattn/go-sqlite3) is the default engine; PostgreSQL is reachable
// through the pgx stdlib driver. Queries are written with "?" placeholders
// and rebound for the active dialect.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

//go:embed migrations
var migrations embed.FS

// DB wraps a sql.DB with user and note operations.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open opens the database for driver, verifies the connection and applies
// all pending migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var dialect goose.Dialect
	switch driver {
	case DriverSQLite:
		dialect = goose.DialectSQLite3
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	fsys, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrations for %s: %w", driver, err)
	}
	provider, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply migrations: %w", err)
	}

	return &DB{conn: conn, driver: driver}, nil
}

// sqlitePragmas are applied to every SQLite connection unless the DSN
// already sets them.
var sqlitePragmas = []struct{ key, value string }{
	{"_journal_mode", "WAL"},
	{"_busy_timeout", "5000"},
	{"_foreign_keys", "on"},
}

// sqliteDSN appends the default pragmas to dsn, keeping any query string
// the DSN already has and any pragma it already sets.
func sqliteDSN(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		params = url.Values{}
	}
	var extra []string
	for _, p := range sqlitePragmas {
		if params.Has(p.key) {
			continue
		}
		extra = append(extra, p.key+"="+p.value)
	}
	if len(extra) == 0 {
		return dsn
	}
	if query == "" {
		return base + "?" + strings.Join(extra, "&")
	}
	return dsn + "&" + strings.Join(extra, "&")
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique-constraint failure in
// either engine.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
