package gopa

import (
	"context"
	"fmt"

	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/internal/query"
	"github.com/mickamy/gopa/mapping"
	"github.com/mickamy/gopa/statement"
)

// entityPersister writes one entity type.
type entityPersister struct {
	entity  *mapping.Entity
	dialect dialect.Dialect
	exec    Executor
}

func (p *entityPersister) insert(ctx context.Context, instance any) error {
	q, err := statement.Insert(p.dialect, p.entity, instance)
	if err != nil {
		return err
	}
	if _, err := p.exec.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("gopa: failed to insert %s: %w", p.entity.Table, err)
	}
	return nil
}

// insertReturningKey inserts instance without its id and returns the key the database generated.
func (p *entityPersister) insertReturningKey(ctx context.Context, instance any) (int64, error) {
	q, err := statement.Insert(p.dialect, p.entity, instance)
	if err != nil {
		return 0, err
	}

	if p.dialect.SupportsReturning() {
		q, _ = query.AppendReturning(q, p.dialect.QuoteIdentifier(p.entity.ID.Name))
		var id int64
		if err := p.exec.QueryRowContext(ctx, q).Scan(&id); err != nil {
			return 0, fmt.Errorf("gopa: failed to insert %s: %w", p.entity.Table, err)
		}
		return id, nil
	}

	res, err := p.exec.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("gopa: failed to insert %s: %w", p.entity.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("gopa: failed to read generated key of %s: %w", p.entity.Table, err)
	}
	return id, nil
}

func (p *entityPersister) update(ctx context.Context, instance any, id any) error {
	q, err := statement.Update(p.dialect, p.entity, instance, id)
	if err != nil {
		return err
	}
	if _, err := p.exec.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("gopa: failed to update %s: %w", p.entity.Table, err)
	}
	return nil
}

func (p *entityPersister) delete(ctx context.Context, id any) error {
	q, err := statement.Delete(p.dialect, p.entity, id)
	if err != nil {
		return err
	}
	if _, err := p.exec.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("gopa: failed to delete %s: %w", p.entity.Table, err)
	}
	return nil
}
