package gopa

import (
	"github.com/mickamy/gopa/mapping"
)

// Status is the lifecycle state of a tracked entity.
type Status int

const (
	StatusManaged Status = iota
	StatusGone
)

func (s Status) String() string {
	switch s {
	case StatusManaged:
		return "MANAGED"
	case StatusGone:
		return "GONE"
	default:
		return "UNKNOWN"
	}
}

// Action is a pending update or delete queued until Flush.
type Action struct {
	ID     any
	Entity any
}

// entry is the persistence context's record of one (type, id).
type entry struct {
	instance any // nil once removed from the identity map
	id       any
	snapshot mapping.Snapshot
	status   Status
}

// meta carries operational context for statement logs.
type meta struct {
	traceID string
}
