// Package sqlstore implements repository.Store on database/sql.
//
// Two dialects are supported: SQLite through the pure-Go modernc.org/sqlite
// driver (development and tests) and PostgreSQL through lib/pq (production).
// Queries are written once with "?" placeholders and rebound to "$n" for
// PostgreSQL.
//
// SQLITE AND CONCURRENCY:
// An SQLite file accepts one writer at a time, and an in-memory database only
// exists on the connection that created it. The pool is pinned to a single
// connection so transactions serialise and ":memory:" stays one database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/bird-tracker/internal/apperror"
	"github.com/sakif/bird-tracker/internal/repository"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config says which database to open.
type Config struct {
	Driver string // DriverSQLite or DriverPostgres
	DSN    string // file path or ":memory:" for SQLite, a URL for PostgreSQL

	// MaxOpenConns applies to PostgreSQL only. Zero leaves the pool default.
	MaxOpenConns int
}

// dbtx is the subset of *sql.DB and *sql.Tx the queries need, so the same
// query code runs inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements repository.Queries over a dbtx.
type queries struct {
	db      dbtx
	dialect string
}

var _ repository.Queries = (*queries)(nil)

// Store owns the connection pool.
type Store struct {
	*queries
	conn   *sql.DB
	logger *slog.Logger
}

// compile-time check that *Store implements repository.Store
var _ repository.Store = (*Store)(nil)

// Open opens and pings the database described by cfg. It does not migrate;
// call Migrate for that.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlstore: empty DSN for driver %s", cfg.Driver)
	}

	conn, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// foreign_keys is off by default; the sightings.user_id cascade needs it.
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	}

	logger.Debug("database opened", "driver", cfg.Driver)

	return &Store{
		queries: &queries{db: conn, dialect: cfg.Driver},
		conn:    conn,
		logger:  logger,
	}, nil
}

// Dialect returns the driver name the store was opened with.
func (s *Store) Dialect() string { return s.dialect }

// DB exposes the pool for tooling such as migrations.
func (s *Store) DB() *sql.DB { return s.conn }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlstore: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back on error or panic. Errors from fn are returned unchanged so callers
// can still match apperror sentinels.
func (s *Store) WithTx(ctx context.Context, fn func(q repository.Queries) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("transaction rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&queries{db: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", mapErr(err))
	}
	return nil
}

// rebind rewrites "?" placeholders to "$1", "$2", ... for PostgreSQL.
// None of the queries contain a literal question mark.
func (q *queries) rebind(query string) string {
	if q.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(query), args...)
	return res, mapErr(err)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(query), args...)
	return rows, mapErr(err)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// Exists reports whether a row with the given id is present in table.
func (q *queries) Exists(ctx context.Context, table repository.Table, id int64) (bool, error) {
	if !table.Valid() {
		return false, fmt.Errorf("sqlstore: unknown table %q", table)
	}
	var ok bool
	err := q.queryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+string(table)+` WHERE id = ?)`, id,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking %s %d: %w", table, id, err)
	}
	return ok, nil
}

func (q *queries) DeleteAll(ctx context.Context, table repository.Table) (int64, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("sqlstore: unknown table %q", table)
	}
	res, err := q.exec(ctx, `DELETE FROM `+string(table))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: clearing %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	return n, nil
}

// mapErr turns unique-key violations from either driver into
// apperror.ErrConflict. Other errors pass through.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &apperror.AppError{Err: apperror.ErrConflict, Message: err.Error()}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}

// updateSet builds "a = ?, b = ?" from a patch restricted to allowed columns.
// Keys are emitted in allowed-column order so the SQL is stable.
func updateSet(patch repository.Patch, allowed []string) (string, []any, error) {
	known := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		known[c] = true
	}
	for k := range patch {
		if !known[k] {
			return "", nil, fmt.Errorf("sqlstore: column %q is not writable", k)
		}
	}

	var sets []string
	var args []any
	for _, c := range allowed {
		v, ok := patch[c]
		if !ok {
			continue
		}
		sets = append(sets, c+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return "", nil, errors.New("sqlstore: empty patch")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	return strings.Join(sets, ", "), args, nil
}
