// Package statement renders single-table DDL and DML for a mapped entity.
// Builders only produce SQL text; they never execute it.
package statement

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mickamy/gopa/dialect"
	"github.com/mickamy/gopa/mapping"
)

// TimeLayout is the layout used for time literals. Times are converted to UTC before formatting
// since the layout carries no zone.
const TimeLayout = "2006-01-02 15:04:05.999999"

// Insert renders an insert of instance. The id column is omitted when the database generates it.
func Insert(d dialect.Dialect, e *mapping.Entity, instance any) (string, error) {
	strategy, err := e.IDStrategy(d)
	if err != nil {
		return "", err
	}
	values, err := e.Values(instance)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(values)+1)
	literals := make([]string, 0, len(values)+1)
	for _, v := range values {
		lit, err := Literal(d, v.Value)
		if err != nil {
			return "", fmt.Errorf("gopa: insert %s.%s: %w", e.Table, v.Column, err)
		}
		names = append(names, d.QuoteIdentifier(v.Column))
		literals = append(literals, lit)
	}
	if !strategy.IsAutoIncrement() {
		id, err := e.IDValue(instance)
		if err != nil {
			return "", err
		}
		lit, err := Literal(d, id)
		if err != nil {
			return "", fmt.Errorf("gopa: insert %s.%s: %w", e.Table, e.ID.Name, err)
		}
		names = append(names, d.QuoteIdentifier(e.ID.Name))
		literals = append(literals, lit)
	}

	return fmt.Sprintf("insert into %s (%s) values (%s)",
		d.QuoteIdentifier(e.Table), strings.Join(names, ", "), strings.Join(literals, ", ")), nil
}

// Update renders an update of every plain column of instance for the row with the given id.
func Update(d dialect.Dialect, e *mapping.Entity, instance any, id any) (string, error) {
	values, err := e.Values(instance)
	if err != nil {
		return "", err
	}
	where, err := whereID(d, e, id)
	if err != nil {
		return "", err
	}

	sets := make([]string, 0, len(values))
	for _, v := range values {
		lit, err := Literal(d, v.Value)
		if err != nil {
			return "", fmt.Errorf("gopa: update %s.%s: %w", e.Table, v.Column, err)
		}
		sets = append(sets, d.QuoteIdentifier(v.Column)+" = "+lit)
	}
	return fmt.Sprintf("update %s set %s %s", d.QuoteIdentifier(e.Table), strings.Join(sets, ", "), where), nil
}

// Delete renders a delete of the row with the given id.
func Delete(d dialect.Dialect, e *mapping.Entity, id any) (string, error) {
	where, err := whereID(d, e, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("delete from %s %s", d.QuoteIdentifier(e.Table), where), nil
}

// Select renders a select of every mapped column of the row with the given id.
func Select(d dialect.Dialect, e *mapping.Entity, id any) (string, error) {
	where, err := whereID(d, e, id)
	if err != nil {
		return "", err
	}
	cols := e.AllColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdentifier(c.Name)
	}
	return fmt.Sprintf("select %s from %s %s", strings.Join(names, ", "), d.QuoteIdentifier(e.Table), where), nil
}

// CreateTable renders the DDL creating the entity's table.
func CreateTable(d dialect.Dialect, e *mapping.Entity) (string, error) {
	def, err := e.Definition(d)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("create table if not exists %s (%s)", d.QuoteIdentifier(e.Table), def), nil
}

// DropTable renders the DDL dropping the entity's table.
func DropTable(d dialect.Dialect, e *mapping.Entity) string {
	return fmt.Sprintf("drop table if exists %s", d.QuoteIdentifier(e.Table))
}

func whereID(d dialect.Dialect, e *mapping.Entity, id any) (string, error) {
	lit, err := Literal(d, id)
	if err != nil {
		return "", fmt.Errorf("gopa: %s id: %w", e.Table, err)
	}
	return "where " + d.QuoteIdentifier(e.ID.Name) + " = " + lit, nil
}

// Literal renders v as a SQL literal. Strings and times are rendered by the dialect's
// StringLiteral, numbers are bare, and nil renders as the dialect's null keyword.
func Literal(d dialect.Dialect, v any) (string, error) {
	if v == nil {
		return d.NullLiteral(), nil
	}
	switch x := v.(type) {
	case string:
		return d.StringLiteral(x), nil
	case []byte:
		return d.StringLiteral(string(x)), nil
	case bool:
		return d.BoolLiteral(x), nil
	case time.Time:
		return d.StringLiteral(x.UTC().Format(TimeLayout)), nil
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer || !rv.IsNil() {
			if _, numeric := numericLiteral(rv); !numeric {
				return d.StringLiteral(x.String()), nil
			}
		}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return d.NullLiteral(), nil
		}
		return Literal(d, rv.Elem().Interface())
	}
	if lit, ok := numericLiteral(rv); ok {
		return lit, nil
	}
	switch rv.Kind() {
	case reflect.String:
		return d.StringLiteral(rv.String()), nil
	case reflect.Bool:
		return d.BoolLiteral(rv.Bool()), nil
	}
	return "", fmt.Errorf("%w: cannot render %T as a literal", dialect.ErrUnsupportedType, v)
}

func numericLiteral(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, rv.Type().Bits()), true
	}
	return "", false
}
