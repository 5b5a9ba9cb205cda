package gopa

import (
	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/mapping"
)

// metaModel hands out the loader and persister of each entity type for one session.
type metaModel struct {
	dialect    dialect.Dialect
	exec       Executor
	persisters map[*mapping.Entity]*entityPersister
	loaders    map[*mapping.Entity]*entityLoader
}

func newMetaModel(d dialect.Dialect, exec Executor) *metaModel {
	return &metaModel{
		dialect:    d,
		exec:       exec,
		persisters: map[*mapping.Entity]*entityPersister{},
		loaders:    map[*mapping.Entity]*entityLoader{},
	}
}

func (m *metaModel) persister(e *mapping.Entity) *entityPersister {
	p, ok := m.persisters[e]
	if !ok {
		p = &entityPersister{entity: e, dialect: m.dialect, exec: m.exec}
		m.persisters[e] = p
	}
	return p
}

func (m *metaModel) loader(e *mapping.Entity) *entityLoader {
	l, ok := m.loaders[e]
	if !ok {
		l = &entityLoader{entity: e, dialect: m.dialect, exec: m.exec}
		m.loaders[e] = l
	}
	return l
}
