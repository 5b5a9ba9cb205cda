package gopa

import (
	"context"
	"fmt"

	"github.com/mickamy/gopa/mapping"
	"github.com/mickamy/gopa/statement"
)

// Migrate creates the tables of the provided entity targets if they do not exist yet.
// Targets may be struct values, pointers to them, or reflect.Types.
func (db *DB) Migrate(ctx context.Context, targets ...any) error {
	if len(targets) == 0 {
		return nil
	}
	entities, err := resolveEntities(targets)
	if err != nil {
		return err
	}
	exec := newLoggingExecutor(db.DB, db.f.logger, db.f.cfg.ShowSQL)
	for _, e := range entities {
		ddl, err := statement.CreateTable(db.f.dialect, e)
		if err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("gopa: failed to create table %s: %w", e.Table, err)
		}
	}
	return nil
}

// DropTables drops the tables of the provided entity targets if they exist.
func (db *DB) DropTables(ctx context.Context, targets ...any) error {
	entities, err := resolveEntities(targets)
	if err != nil {
		return err
	}
	exec := newLoggingExecutor(db.DB, db.f.logger, db.f.cfg.ShowSQL)
	for _, e := range entities {
		if _, err := exec.ExecContext(ctx, statement.DropTable(db.f.dialect, e)); err != nil {
			return fmt.Errorf("gopa: failed to drop table %s: %w", e.Table, err)
		}
	}
	return nil
}

func resolveEntities(targets []any) ([]*mapping.Entity, error) {
	out := make([]*mapping.Entity, 0, len(targets))
	for _, t := range targets {
		if t == nil {
			return nil, fmt.Errorf("gopa: nil table target")
		}
		e, err := mapping.Of(t)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
