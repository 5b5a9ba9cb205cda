package gopa

import (
	"reflect"

	"github.com/mickamy/gopa/internal/queue"
	"github.com/mickamy/gopa/mapping"
)

// PersistenceContext is the identity map and pending action queues of one session.
// Entries are never deleted; a GONE entry still reports its status.
type PersistenceContext interface {
	// Entity returns the tracked instance for (t, id) if it is MANAGED. It never loads.
	Entity(t reflect.Type, id any) (any, bool)
	// AddEntity registers entity under id with status MANAGED, overwriting any previous entry.
	AddEntity(entity any, id any)
	// RemoveEntity clears the identity-map reference for (t, id). The entry stays addressable.
	RemoveEntity(t reflect.Type, id any)
	// StoreSnapshot replaces the last known persisted state of (t, id).
	StoreSnapshot(t reflect.Type, id any, s mapping.Snapshot) mapping.Snapshot
	// Snapshot returns the last stored snapshot of (t, id).
	Snapshot(t reflect.Type, id any) (mapping.Snapshot, bool)
	Status(t reflect.Type, id any) (Status, bool)
	// MarkGone transitions (t, id) to GONE after its delete was executed.
	MarkGone(t reflect.Type, id any)

	AddUpdateAction(a Action)
	AddDeleteAction(a Action)
	// DrainUpdateActions returns queued updates in enqueue order and clears the queue.
	DrainUpdateActions() []Action
	// DrainDeleteActions returns queued deletes in enqueue order and clears the queue.
	DrainDeleteActions() []Action
}

type entityKey struct {
	typ reflect.Type
	id  any
}

type persistenceContext struct {
	entries map[entityKey]*entry
	updates *queue.Queue[Action]
	deletes *queue.Queue[Action]
}

// NewPersistenceContext returns an empty, session-scoped persistence context.
func NewPersistenceContext() PersistenceContext {
	return &persistenceContext{
		entries: map[entityKey]*entry{},
		updates: queue.New[Action](),
		deletes: queue.New[Action](),
	}
}

func (pc *persistenceContext) Entity(t reflect.Type, id any) (any, bool) {
	e, ok := pc.entries[keyOf(t, id)]
	if !ok || e.status != StatusManaged || e.instance == nil {
		return nil, false
	}
	return e.instance, true
}

func (pc *persistenceContext) AddEntity(entity any, id any) {
	e := pc.entryFor(keyOf(reflect.TypeOf(entity), id), id)
	e.instance = entity
	e.status = StatusManaged
}

func (pc *persistenceContext) RemoveEntity(t reflect.Type, id any) {
	if e, ok := pc.entries[keyOf(t, id)]; ok {
		e.instance = nil
	}
}

func (pc *persistenceContext) StoreSnapshot(t reflect.Type, id any, s mapping.Snapshot) mapping.Snapshot {
	pc.entryFor(keyOf(t, id), id).snapshot = s
	return s
}

func (pc *persistenceContext) Snapshot(t reflect.Type, id any) (mapping.Snapshot, bool) {
	e, ok := pc.entries[keyOf(t, id)]
	if !ok || e.snapshot.IsZero() {
		return mapping.Snapshot{}, false
	}
	return e.snapshot, true
}

func (pc *persistenceContext) Status(t reflect.Type, id any) (Status, bool) {
	e, ok := pc.entries[keyOf(t, id)]
	if !ok {
		return 0, false
	}
	return e.status, true
}

func (pc *persistenceContext) MarkGone(t reflect.Type, id any) {
	e := pc.entryFor(keyOf(t, id), id)
	e.status = StatusGone
	e.instance = nil
}

func (pc *persistenceContext) AddUpdateAction(a Action) { pc.updates.Add(a) }

func (pc *persistenceContext) AddDeleteAction(a Action) { pc.deletes.Add(a) }

func (pc *persistenceContext) DrainUpdateActions() []Action { return pc.updates.Drain() }

func (pc *persistenceContext) DrainDeleteActions() []Action { return pc.deletes.Drain() }

func (pc *persistenceContext) entryFor(k entityKey, id any) *entry {
	e, ok := pc.entries[k]
	if !ok {
		e = &entry{id: id, status: StatusManaged}
		pc.entries[k] = e
	}
	return e
}

func keyOf(t reflect.Type, id any) entityKey {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return entityKey{typ: t, id: normalizeID(id)}
}

// normalizeID folds integer kinds together so that find(t, 1) and a persisted int64 id hit the same entry.
func normalizeID(id any) any {
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= 1<<63-1 {
			return int64(u)
		}
		return rv.Uint()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalizeID(rv.Elem().Interface())
	}
	return id
}
