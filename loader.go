package gopa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/mapping"
	"github.com/mickamy/gopa/statement"
)

// entityLoader materializes one entity type from rows.
type entityLoader struct {
	entity  *mapping.Entity
	dialect dialect.Dialect
	exec    Executor
}

// find selects the row with the given id and returns a new *T populated from it.
// A missing row is reported as ErrNotFound.
func (l *entityLoader) find(ctx context.Context, id any) (any, error) {
	q, err := statement.Select(l.dialect, l.entity, id)
	if err != nil {
		return nil, err
	}
	rows, err := l.exec.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("gopa: failed to select %s: %w", l.entity.Table, err)
	}
	row, err := scanOne(rows)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s with %s = %v: %w", ErrNotFound, l.entity.Table, l.entity.ID.Name, id, err)
		}
		return nil, fmt.Errorf("gopa: failed to scan %s: %w", l.entity.Table, err)
	}

	instance := reflect.New(l.entity.Type).Interface()
	for col, v := range row {
		if _, ok := l.entity.Column(col); !ok {
			continue
		}
		if err := l.entity.SetValue(instance, col, v); err != nil {
			return nil, err
		}
	}
	return instance, nil
}
