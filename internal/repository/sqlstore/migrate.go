package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sakif/bird-tracker/migrations"
)

// Migrator applies the embedded schema history to an open Store.
type Migrator struct {
	m       *migrate.Migrate
	src     source.Driver
	dialect string
}

// NewMigrator builds a migrator bound to the store's connection pool.
func (s *Store) NewMigrator() (*Migrator, error) {
	src, err := iofs.New(migrations.FS, s.dialect)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: loading %s migrations: %w", s.dialect, err)
	}

	var drv database.Driver
	switch s.dialect {
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(s.conn, &migratesqlite.Config{})
	case DriverPostgres:
		// WithInstance would close the pool on Close. A dedicated connection
		// keeps the pool owned by the Store.
		var conn *sql.Conn
		conn, err = s.conn.Conn(context.Background())
		if err == nil {
			drv, err = migratepg.WithConnection(context.Background(), conn, &migratepg.Config{})
			if err != nil {
				conn.Close()
			}
		}
	}
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("sqlstore: preparing %s migration driver: %w", s.dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.dialect, drv)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("sqlstore: creating migrator: %w", err)
	}
	m.Log = &migrateLogger{logger: s.logger}

	return &Migrator{m: m, src: src, dialect: s.dialect}, nil
}

// Up applies every pending migration. Being already current is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrating up: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func (mg *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("sqlstore: invalid down steps %d", steps)
	}
	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrating down: %w", err)
	}
	return nil
}

// Version returns the applied version. A fresh database reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlstore: reading migration version: %w", err)
	}
	return v, dirty, nil
}

// Force sets the version without running anything, to clear a dirty state.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("sqlstore: forcing version %d: %w", version, err)
	}
	return nil
}

// Close releases migrator resources. The SQLite migration driver closes the
// *sql.DB it was handed, which the Store still owns, so for SQLite only the
// source is closed. The PostgreSQL driver only holds its own connection.
func (mg *Migrator) Close() error {
	if mg.dialect == DriverSQLite {
		return mg.src.Close()
	}
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate is the one-shot form used at server start.
func (s *Store) Migrate() error {
	mg, err := s.NewMigrator()
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug("migrate: " + fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }
