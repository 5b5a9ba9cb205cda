package mapping

import (
	"bytes"
	"math"
	"reflect"
	"time"
)

// Snapshot is an immutable copy of an instance's plain column values at one point in time.
type Snapshot struct {
	values Values
	taken  bool
}

// Take captures the current column values of instance.
func Take(e *Entity, instance any) (Snapshot, error) {
	vs, err := e.Values(instance)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{values: vs, taken: true}, nil
}

// IsZero reports whether s was never taken.
func (s Snapshot) IsZero() bool {
	return !s.taken
}

// Get returns the captured value of column.
func (s Snapshot) Get(column string) (any, bool) {
	return s.values.Get(column)
}

// Columns returns the captured column names in order.
func (s Snapshot) Columns() []string {
	return s.values.Names()
}

// Values returns a copy of the captured values.
func (s Snapshot) Values() Values {
	out := make(Values, len(s.values))
	for i, v := range s.values {
		if b, ok := v.Value.([]byte); ok {
			v.Value = bytes.Clone(b)
		}
		out[i] = v
	}
	return out
}

// IsDirty reports whether any column value differs between s and other.
func (s Snapshot) IsDirty(other Snapshot) bool {
	return IsDirty(s, other)
}

// IsDirty reports whether a and b differ in their column set or in any column value.
func IsDirty(a, b Snapshot) bool {
	if len(a.values) != len(b.values) {
		return true
	}
	for i := range a.values {
		if a.values[i].Column != b.values[i].Column {
			return true
		}
		if !equalValue(a.values[i].Value, b.values[i].Value) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case float64:
		bv, ok := b.(float64)
		return ok && (av == bv || math.IsNaN(av) && math.IsNaN(bv))
	case float32:
		bv, ok := b.(float32)
		return ok && (av == bv || math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	}
	return reflect.DeepEqual(a, b)
}
