// Package mapping discovers how a struct type maps onto a table and reads or writes its column values.
//
// Columns are declared with the `db` struct tag:
//
//	type Person struct {
//		ID    int64  `db:"id,id,generated=identity"`
//		Name  string `db:"nick_name,length=255"`
//		Age   int    `db:"old"`
//		Email string `db:"email,notnull"`
//		Index int    `db:"-"`
//	}
//
// Options after the column name are id, generated=identity|sequence|auto|none, notnull, length=N,
// type=<sql type> and transient. A field named ID is the id column when no field is tagged id.
package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/gopa/dialect"
)

var (
	ErrNotStruct         = errors.New("gopa: entity is not a struct")
	ErrNoIDColumn        = errors.New("gopa: entity has no id column")
	ErrMultipleIDColumns = errors.New("gopa: entity has more than one id column")
	ErrUnknownColumn     = errors.New("gopa: unknown column")
)

// TableNamer provides a custom table name for an entity.
type TableNamer interface {
	TableName() string
}

// Column describes one mapped struct field.
type Column struct {
	Name       string       // column name
	Field      string       // struct field name
	Index      []int        // field index path, for embedded structs
	Type       reflect.Type // field type
	ID         bool
	Generation dialect.GenerationType
	Nullable   bool
	Length     int
	SQLType    string // explicit type override from the tag
}

// ColumnType returns the column's SQL type in d.
func (c *Column) ColumnType(d dialect.Dialect) (string, error) {
	if c.SQLType != "" {
		return c.SQLType, nil
	}
	t, err := d.ColumnType(c.Type, c.Length)
	if err != nil {
		return "", fmt.Errorf("%w (column %s)", err, c.Name)
	}
	return t, nil
}

// Entity is the table mapping of a struct type.
type Entity struct {
	Type    reflect.Type
	Table   string
	ID      *Column
	Columns []*Column // plain columns in declaration order; excludes the id and transient fields

	byName map[string]*Column
}

var cache sync.Map // reflect.Type -> *Entity

// Of returns the mapping of v, which may be a struct value, a pointer to one, or a reflect.Type.
func Of(v any) (*Entity, error) {
	if t, ok := v.(reflect.Type); ok {
		return Parse(t)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: nil", ErrNotStruct)
	}
	return Parse(reflect.TypeOf(v))
}

// Parse returns the mapping of t. Results are cached per type.
func Parse(t reflect.Type) (*Entity, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := cache.Load(t); ok {
		return cached.(*Entity), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}

	table, err := tableName(t)
	if err != nil {
		return nil, err
	}
	e := &Entity{Type: t, Table: table, byName: map[string]*Column{}}

	cols, err := fields(t, nil)
	if err != nil {
		return nil, err
	}
	var implicitID *Column
	for _, c := range cols {
		if _, dup := e.byName[c.Name]; dup {
			return nil, fmt.Errorf("gopa: duplicate column %q in %v", c.Name, t)
		}
		e.byName[c.Name] = c
		switch {
		case c.ID:
			if e.ID != nil {
				return nil, fmt.Errorf("%w: %v", ErrMultipleIDColumns, t)
			}
			e.ID = c
		case c.Field == "ID" && len(c.Index) == 1:
			implicitID = c
			e.Columns = append(e.Columns, c)
		default:
			e.Columns = append(e.Columns, c)
		}
	}
	if e.ID == nil && implicitID != nil {
		implicitID.ID = true
		implicitID.Nullable = false
		e.ID = implicitID
		e.Columns = removeColumn(e.Columns, implicitID)
	}
	if e.ID == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoIDColumn, t)
	}

	actual, _ := cache.LoadOrStore(t, e)
	return actual.(*Entity), nil
}

// Column returns the column named name, including the id column.
func (e *Entity) Column(name string) (*Column, bool) {
	c, ok := e.byName[name]
	return c, ok
}

// AllColumns returns the id column followed by the plain columns.
func (e *Entity) AllColumns() []*Column {
	out := make([]*Column, 0, len(e.Columns)+1)
	out = append(out, e.ID)
	return append(out, e.Columns...)
}

// IDStrategy resolves the id column's generation strategy in d.
func (e *Entity) IDStrategy(d dialect.Dialect) (dialect.IDStrategy, error) {
	s, err := d.IDStrategy(e.ID.Generation)
	if err != nil {
		return dialect.IDStrategy{}, fmt.Errorf("%w (entity %v)", err, e.Type)
	}
	return s, nil
}

func fields(t reflect.Type, parent []int) ([]*Column, error) {
	var out []*Column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup("db")
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), parent...), i)

		if f.Anonymous && !hasTag {
			switch {
			case f.Type.Kind() == reflect.Struct:
				nested, err := fields(f.Type, index)
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
				continue
			case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
				// embedded pointers may be nil; only value embedding is flattened
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		c, skip, err := parseTag(f, tag)
		if err != nil {
			return nil, fmt.Errorf("gopa: field %s.%s: %w", t.Name(), f.Name, err)
		}
		if skip {
			continue
		}
		c.Index = index
		out = append(out, c)
	}
	return out, nil
}

func parseTag(f reflect.StructField, tag string) (*Column, bool, error) {
	parts := strings.Split(tag, ",")
	c := &Column{
		Name:     strings.TrimSpace(parts[0]),
		Field:    f.Name,
		Type:     f.Type,
		Nullable: true,
	}
	if c.Name == "" {
		c.Name = toSnakeCase(f.Name)
	}
	for _, opt := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "":
		case "id":
			c.ID = true
			c.Nullable = false
		case "transient":
			return nil, true, nil
		case "notnull":
			c.Nullable = false
		case "generated":
			g, err := dialect.ParseGenerationType(val)
			if err != nil {
				return nil, false, err
			}
			c.Generation = g
		case "length":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return nil, false, fmt.Errorf("invalid length %q", val)
			}
			c.Length = n
		case "type":
			c.SQLType = val
		default:
			return nil, false, fmt.Errorf("unknown tag option %q", key)
		}
	}
	return c, false, nil
}

func removeColumn(cols []*Column, target *Column) []*Column {
	out := cols[:0]
	for _, c := range cols {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

func tableName(t reflect.Type) (string, error) {
	var namer TableNamer
	switch {
	case t.Implements(tableNamerType):
		namer = reflect.Zero(t).Interface().(TableNamer)
	case reflect.PointerTo(t).Implements(tableNamerType):
		namer = reflect.New(t).Interface().(TableNamer)
	}
	if namer != nil {
		name := strings.TrimSpace(namer.TableName())
		if name == "" {
			return "", fmt.Errorf("gopa: TableName returned empty string. %v", t)
		}
		return name, nil
	}
	if t.Name() == "" {
		return "", fmt.Errorf("gopa: cannot derive table name for anonymous struct of type %v", t)
	}
	return inflection.Plural(toSnakeCase(t.Name())), nil
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
