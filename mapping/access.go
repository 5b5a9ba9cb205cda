package mapping

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// FieldAccessor reads and writes mapped column values on entity instances.
type FieldAccessor interface {
	Value(instance any, column string) (any, error)
	SetValue(instance any, column string, v any) error
}

var _ FieldAccessor = (*Entity)(nil)

// Value is one column value read from an instance.
type Value struct {
	Column string
	Value  any
}

// Values is an ordered list of column values.
type Values []Value

// Get returns the value of column.
func (vs Values) Get(column string) (any, bool) {
	for _, v := range vs {
		if v.Column == column {
			return v.Value, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (vs Values) Names() []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Column
	}
	return names
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// Values reads the plain column values of instance in declaration order.
func (e *Entity) Values(instance any) (Values, error) {
	rv, err := e.structValue(instance)
	if err != nil {
		return nil, err
	}
	out := make(Values, len(e.Columns))
	for i, c := range e.Columns {
		out[i] = Value{Column: c.Name, Value: read(rv.FieldByIndex(c.Index))}
	}
	return out, nil
}

// Value reads one column, including the id column.
func (e *Entity) Value(instance any, column string) (any, error) {
	c, ok := e.byName[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, e.Table, column)
	}
	rv, err := e.structValue(instance)
	if err != nil {
		return nil, err
	}
	return read(rv.FieldByIndex(c.Index)), nil
}

// IDValue reads the id column.
func (e *Entity) IDValue(instance any) (any, error) {
	return e.Value(instance, e.ID.Name)
}

// SetValue writes v into column, converting driver values to the field type.
// instance must be a non-nil pointer to the entity struct.
func (e *Entity) SetValue(instance any, column string, v any) error {
	c, ok := e.byName[column]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, e.Table, column)
	}
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != e.Type {
		return fmt.Errorf("gopa: cannot set %s on %T: want *%v", column, instance, e.Type)
	}
	field := rv.Elem().FieldByIndex(c.Index)
	if !field.CanSet() {
		return fmt.Errorf("gopa: field %s of %v is not settable", c.Field, e.Type)
	}
	if err := assign(field, v); err != nil {
		return fmt.Errorf("gopa: set %s.%s: %w", e.Table, column, err)
	}
	return nil
}

// SetIDValue writes the id column.
func (e *Entity) SetIDValue(instance any, v any) error {
	return e.SetValue(instance, e.ID.Name, v)
}

func (e *Entity) structValue(instance any) (reflect.Value, error) {
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("gopa: nil %v instance", e.Type)
		}
		rv = rv.Elem()
	}
	if rv.Type() != e.Type {
		return reflect.Value{}, fmt.Errorf("gopa: instance of %v is not a %v", rv.Type(), e.Type)
	}
	return rv, nil
}

// read copies a field value out of the instance so later mutation cannot alias it.
func read(f reflect.Value) any {
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
	}
	if f.Type() == bytesType {
		if f.IsNil() {
			return nil
		}
		b := make([]byte, f.Len())
		copy(b, f.Bytes())
		return b
	}
	return f.Interface()
}

func assign(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(field.Type()) {
		if field.Type() == bytesType {
			b := make([]byte, rv.Len())
			copy(b, rv.Bytes())
			field.SetBytes(b)
			return nil
		}
		field.Set(rv)
		return nil
	}

	switch field.Type() {
	case bytesType:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		field.SetBytes([]byte(s))
		return nil
	case timeType:
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		t, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch field.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %v", n, field.Type())
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(v)
		if err != nil {
			return err
		}
		if field.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %v", n, field.Type())
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("cannot assign %T to %v", v, field.Type())
	}
	return nil
}
