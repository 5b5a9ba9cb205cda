package mapping

import (
	"fmt"
	"strings"

	"github.com/mickamy/gopa/dialect"
)

// ColumnsDefinition renders the DDL definition of the plain columns, e.g.
// "nick_name varchar(255), old integer, email varchar(255) not null".
func (e *Entity) ColumnsDefinition(d dialect.Dialect) (string, error) {
	defs := make([]string, 0, len(e.Columns))
	for _, c := range e.Columns {
		typ, err := c.ColumnType(d)
		if err != nil {
			return "", err
		}
		def := d.QuoteIdentifier(c.Name) + " " + typ
		if !c.Nullable {
			def += " not null"
		}
		defs = append(defs, def)
	}
	return strings.Join(defs, ", "), nil
}

// Definition renders the full DDL column list with the id column first.
func (e *Entity) Definition(d dialect.Dialect) (string, error) {
	typ, err := e.ID.ColumnType(d)
	if err != nil {
		return "", err
	}
	strategy, err := e.IDStrategy(d)
	if err != nil {
		return "", err
	}
	id := d.IDColumnDefinition(e.ID.Name, typ, strategy.IsAutoIncrement())
	if len(e.Columns) == 0 {
		return id, nil
	}
	rest, err := e.ColumnsDefinition(d)
	if err != nil {
		return "", err
	}
	return id + ", " + rest, nil
}

// ColumnNames returns the plain column names joined by ", ".
func (e *Entity) ColumnNames() string {
	return strings.Join(e.ColumnNameList(), ", ")
}

// ColumnNameList returns the plain column names in declaration order.
func (e *Entity) ColumnNameList() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// IsDirty compares the mapped column values of two instances of the entity.
func (e *Entity) IsDirty(a, b any) (bool, error) {
	sa, err := Take(e, a)
	if err != nil {
		return false, err
	}
	sb, err := Take(e, b)
	if err != nil {
		return false, err
	}
	return sa.IsDirty(sb), nil
}

func (e *Entity) String() string {
	return fmt.Sprintf("%v(%s)", e.Type, e.Table)
}
