package gopa

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/mapping"
)

// EntityManager is the unit-of-work API of one session. It is not safe for concurrent use.
//
// Updates and deletes are deferred: Merge and Remove only queue actions, and Flush executes
// every queued update before any queued delete. Flush does not begin or commit a transaction;
// pass a *sql.Tx as the executor when the batch has to be atomic.
type EntityManager struct {
	dialect dialect.Dialect
	pc      PersistenceContext
	meta    *metaModel
	logger  *zap.Logger
}

// Option configures an EntityManager.
type Option func(*managerOptions)

type managerOptions struct {
	pc      PersistenceContext
	logger  *zap.Logger
	showSQL bool
}

// WithPersistenceContext replaces the fresh persistence context a manager would create.
func WithPersistenceContext(pc PersistenceContext) Option {
	return func(o *managerOptions) { o.pc = pc }
}

// WithLogger sets the logger used for statements and flush summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// WithShowSQL logs every statement at info level instead of debug.
func WithShowSQL(v bool) Option {
	return func(o *managerOptions) { o.showSQL = v }
}

// NewEntityManager creates a session that runs its SQL on exec.
func NewEntityManager(exec Executor, d dialect.Dialect, opts ...Option) *EntityManager {
	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pc == nil {
		o.pc = NewPersistenceContext()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &EntityManager{
		dialect: d,
		pc:      o.pc,
		meta:    newMetaModel(d, newLoggingExecutor(exec, o.logger, o.showSQL)),
		logger:  o.logger,
	}
}

// Dialect returns the dialect statements are rendered with.
func (em *EntityManager) Dialect() dialect.Dialect {
	return em.dialect
}

// Context returns the session's persistence context.
func (em *EntityManager) Context() PersistenceContext {
	return em.pc
}

// Find returns the entity of type t with the given id. A tracked instance is returned as is;
// otherwise the row is loaded, registered and snapshotted. The result is a pointer to t.
func (em *EntityManager) Find(ctx context.Context, t reflect.Type, id any) (any, error) {
	e, err := mapping.Parse(t)
	if err != nil {
		return nil, err
	}
	if found, ok := em.pc.Entity(e.Type, id); ok {
		return found, nil
	}
	found, err := em.meta.loader(e).find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := em.save(e, found, id); err != nil {
		return nil, err
	}
	return found, nil
}

// Find is the typed form of EntityManager.Find.
func Find[T any](ctx context.Context, em *EntityManager, id any) (*T, error) {
	found, err := em.Find(ctx, reflect.TypeOf((*T)(nil)).Elem(), id)
	if err != nil {
		return nil, err
	}
	return found.(*T), nil
}

// Persist inserts entity, which must be a pointer to a mapped struct.
// When the database generates the id, the generated key is written back into the entity.
func (em *EntityManager) Persist(ctx context.Context, entity any) error {
	e, err := em.entityOf(entity)
	if err != nil {
		return err
	}
	strategy, err := e.IDStrategy(em.dialect)
	if err != nil {
		return err
	}
	p := em.meta.persister(e)

	if strategy.IsAutoIncrement() {
		id, err := p.insertReturningKey(ctx, entity)
		if err != nil {
			return err
		}
		if err := e.SetIDValue(entity, id); err != nil {
			return err
		}
		return em.save(e, entity, id)
	}

	id, err := e.IDValue(entity)
	if err != nil {
		return err
	}
	if err := em.save(e, entity, id); err != nil {
		return err
	}
	return p.insert(ctx, entity)
}

// Remove unregisters entity and queues its delete for the next Flush.
func (em *EntityManager) Remove(entity any) error {
	e, err := em.entityOf(entity)
	if err != nil {
		return err
	}
	id, err := e.IDValue(entity)
	if err != nil {
		return err
	}
	if status, ok := em.pc.Status(e.Type, id); ok && status == StatusGone {
		return fmt.Errorf("%w: %s with %s = %v", ErrEntityGone, e.Table, e.ID.Name, id)
	}
	em.pc.RemoveEntity(e.Type, id)
	em.pc.AddDeleteAction(Action{ID: id, Entity: entity})
	return nil
}

// Merge queues an update when entity differs from its last stored snapshot and refreshes
// the snapshot, so merging an unchanged entity again is a no-op.
func (em *EntityManager) Merge(entity any) error {
	e, err := em.entityOf(entity)
	if err != nil {
		return err
	}
	id, err := e.IDValue(entity)
	if err != nil {
		return err
	}
	if status, ok := em.pc.Status(e.Type, id); ok && status == StatusGone {
		return fmt.Errorf("%w: %s with %s = %v", ErrEntityGone, e.Table, e.ID.Name, id)
	}
	previous, ok := em.pc.Snapshot(e.Type, id)
	if !ok {
		return fmt.Errorf("%w: %s with %s = %v", ErrNotManaged, e.Table, e.ID.Name, id)
	}
	current, err := mapping.Take(e, entity)
	if err != nil {
		return err
	}
	if !current.IsDirty(previous) {
		return nil
	}
	em.pc.AddUpdateAction(Action{ID: id, Entity: entity})
	em.pc.StoreSnapshot(e.Type, id, current)
	em.pc.AddEntity(entity, id)
	return nil
}

// Flush executes queued updates in order, then queued deletes in order, marking each deleted
// entry GONE. The first failing statement stops the flush; statements already executed stay applied.
func (em *EntityManager) Flush(ctx context.Context) error {
	updates := em.pc.DrainUpdateActions()
	for _, a := range updates {
		e, err := mapping.Of(a.Entity)
		if err != nil {
			return err
		}
		if err := em.meta.persister(e).update(ctx, a.Entity, a.ID); err != nil {
			return err
		}
	}

	deletes := em.pc.DrainDeleteActions()
	for _, a := range deletes {
		e, err := mapping.Of(a.Entity)
		if err != nil {
			return err
		}
		if err := em.meta.persister(e).delete(ctx, a.ID); err != nil {
			return err
		}
		em.pc.MarkGone(e.Type, a.ID)
	}

	em.logger.Debug("flushed", zap.Int("updates", len(updates)), zap.Int("deletes", len(deletes)))
	return nil
}

// save registers entity under id and stores its current values as the last known persisted state.
func (em *EntityManager) save(e *mapping.Entity, entity any, id any) error {
	s, err := mapping.Take(e, entity)
	if err != nil {
		return err
	}
	em.pc.StoreSnapshot(e.Type, id, s)
	em.pc.AddEntity(entity, id)
	return nil
}

func (em *EntityManager) entityOf(entity any) (*mapping.Entity, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%w: got %T", ErrNotPointer, entity)
	}
	return mapping.Of(entity)
}
