// Package migration applies and authors the versioned SQL schema.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/invoicer/backend/migrations"
	"go.uber.org/zap"
)

// Migrator runs golang-migrate against an open postgres connection
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// Option picks the migration source
type Option func(*source)

type source struct {
	dir string
	fs  fs.FS
}

// WithDirectory reads migrations from disk rather than the embedded set
func WithDirectory(dir string) Option {
	return func(s *source) { s.dir = dir }
}

// WithSource reads migrations from the root of fsys
func WithSource(fsys fs.FS) Option {
	return func(s *source) { s.fs = fsys }
}

// New builds a Migrator over db, reading the embedded migrations unless an
// option says otherwise
func New(db *sql.DB, log *zap.Logger, opts ...Option) (*Migrator, error) {
	src := source{fs: migrations.FS}
	for _, opt := range opts {
		opt(&src)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migrate driver: %w", err)
	}

	var m *migrate.Migrate
	if src.dir != "" {
		m, err = migrate.NewWithDatabaseInstance("file://"+src.dir, "postgres", driver)
	} else {
		d, ioErr := iofs.New(src.fs, ".")
		if ioErr != nil {
			return nil, fmt.Errorf("open migration source: %w", ioErr)
		}
		m, err = migrate.NewWithInstance("iofs", d, "postgres", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

// apply runs one golang-migrate operation. Having nothing to do is not an
// error.
func (mg *Migrator) apply(op string, run func() error, fields ...zap.Field) error {
	mg.log.Info("Migration started", append([]zap.Field{zap.String("op", op)}, fields...)...)

	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error {
	return mg.apply("up", mg.m.Up)
}

// Down rolls every migration back
func (mg *Migrator) Down() error {
	return mg.apply("down", mg.m.Down)
}

// Steps moves n migrations, forward when n is positive
func (mg *Migrator) Steps(n int) error {
	return mg.apply("steps", func() error { return mg.m.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates up or down to version
func (mg *Migrator) GoTo(version uint) error {
	return mg.apply("goto", func() error { return mg.m.Migrate(version) }, zap.Uint("target", version))
}

// Force records version without running anything. It repairs a schema left
// dirty by a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Version reports the applied version, 0 for an empty schema
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and the driver. The driver closes db.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
