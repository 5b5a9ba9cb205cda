package gopa

import (
	"database/sql"
)

// scanOne consumes exactly one row from *sql.Rows into a map keyed by column name.
func scanOne(rows *sql.Rows) (map[string]any, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return rowToMap(cols, vals), nil
}

// rowToMap converts a single row (columns + values) to a map.
// Driver-owned byte slices are copied since they are only valid until the next Scan.
func rowToMap(cols []string, vals []any) map[string]any {
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			m[c] = append([]byte(nil), b...)
			continue
		}
		m[c] = vals[i]
	}
	return m
}
