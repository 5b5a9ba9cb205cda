// Package gopa is a small unit-of-work persistence engine over database/sql.
//
// An EntityManager tracks the entities it loaded or persisted in an identity map, snapshots
// their column values, and turns the differences found by Merge into UPDATE statements that
// run on Flush together with the queued deletes.
package gopa

import (
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/mickamy/gopa/dialect"
)

var (
	// ErrNotFound is returned by Find when no row has the requested id.
	ErrNotFound = errors.New("gopa: entity not found")
	// ErrNotManaged is returned by Merge for an entity the session has no snapshot of.
	ErrNotManaged = errors.New("gopa: entity is not managed")
	// ErrEntityGone is returned when writing an entity whose delete was already flushed.
	ErrEntityGone = errors.New("gopa: entity is gone")
	// ErrNotPointer is returned when an entity is not a non-nil pointer to a struct.
	ErrNotPointer = errors.New("gopa: entity must be a non-nil pointer")
)

// Factory creates entity managers that share a dialect and logging setup.
type Factory struct {
	cfg     Config
	dialect dialect.Dialect
	logger  *zap.Logger
}

// New creates a Factory with sensible defaults.
func New(cfg Config) (*Factory, error) {
	cfg.applyDefaults()
	d, err := dialect.Get(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, dialect: d, logger: logger.With(zap.String("dialect", d.Name()))}, nil
}

// Dialect returns the dialect resolved from the config.
func (f *Factory) Dialect() dialect.Dialect {
	return f.dialect
}

// NewEntityManager creates a session running on exec, which may be a *sql.Tx.
func (f *Factory) NewEntityManager(exec Executor, opts ...Option) *EntityManager {
	base := []Option{WithLogger(f.logger), WithShowSQL(f.cfg.ShowSQL)}
	return NewEntityManager(exec, f.dialect, append(base, opts...)...)
}

// DB wraps a *sql.DB instance to create sessions on it.
type DB struct {
	*sql.DB
	f *Factory
}

// WrapDB attaches the factory to a *sql.DB connection.
func (f *Factory) WrapDB(db *sql.DB) *DB {
	return &DB{DB: db, f: f}
}

// Factory returns the factory db was wrapped by.
func (db *DB) Factory() *Factory {
	return db.f
}

// EntityManager creates a new session with its own persistence context.
func (db *DB) EntityManager(opts ...Option) *EntityManager {
	return db.f.NewEntityManager(db.DB, opts...)
}
