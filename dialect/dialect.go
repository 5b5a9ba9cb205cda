// Package dialect maps Go field types and id-generation declarations to database specific SQL.
package dialect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	// ErrUnsupportedType is returned when a Go type has no SQL column type in a dialect.
	ErrUnsupportedType = errors.New("gopa: unsupported column type")
	// ErrUnsupportedGeneration is returned when a dialect cannot honor an id-generation strategy.
	ErrUnsupportedGeneration = errors.New("gopa: unsupported id generation strategy")
)

// DefaultLength is the varchar length used when a column does not declare one.
const DefaultLength = 255

// GenerationType is the id-generation strategy declared on an id column.
type GenerationType int

const (
	GenerationNone GenerationType = iota
	GenerationIdentity
	GenerationSequence
	GenerationAuto
)

func (g GenerationType) String() string {
	switch g {
	case GenerationNone:
		return "none"
	case GenerationIdentity:
		return "identity"
	case GenerationSequence:
		return "sequence"
	case GenerationAuto:
		return "auto"
	default:
		return fmt.Sprintf("GenerationType(%d)", int(g))
	}
}

// ParseGenerationType parses the value of a `generated=` tag option.
func ParseGenerationType(s string) (GenerationType, error) {
	switch s {
	case "", "none":
		return GenerationNone, nil
	case "identity":
		return GenerationIdentity, nil
	case "sequence":
		return GenerationSequence, nil
	case "auto":
		return GenerationAuto, nil
	}
	return GenerationNone, fmt.Errorf("%w: %q", ErrUnsupportedGeneration, s)
}

// IDStrategy is a generation strategy resolved by a dialect.
type IDStrategy struct {
	Type          GenerationType
	autoIncrement bool
}

// IsAutoIncrement reports whether the database assigns the id on insert.
func (s IDStrategy) IsAutoIncrement() bool {
	return s.autoIncrement
}

// Dialect is implemented once per target database.
type Dialect interface {
	Name() string
	// ColumnType returns the SQL type keyword for a Go type. length applies to string columns.
	ColumnType(t reflect.Type, length int) (string, error)
	IDStrategy(g GenerationType) (IDStrategy, error)
	// IDColumnDefinition renders the DDL fragment for the id column.
	IDColumnDefinition(name, sqlType string, autoIncrement bool) string
	QuoteIdentifier(name string) string
	NullLiteral() string
	// StringLiteral renders s as a single-quoted literal, escaped for the dialect.
	StringLiteral(s string) string
	BoolLiteral(b bool) string
	// SupportsReturning reports whether generated keys are read with a RETURNING clause
	// instead of sql.Result.LastInsertId.
	SupportsReturning() bool
}

// typeClass groups Go types that share a SQL column type.
type typeClass int

const (
	classUnknown typeClass = iota
	classString
	classInt
	classBigInt
	classFloat
	classBool
	classTime
	classBytes
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

func classify(t reflect.Type) typeClass {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return classTime
	case t == bytesType:
		return classBytes
	}
	switch t.Kind() {
	case reflect.String:
		return classString
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Uint8, reflect.Uint16:
		return classInt
	case reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return classBigInt
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.Bool:
		return classBool
	}
	return classUnknown
}

func unsupportedType(d Dialect, t reflect.Type) error {
	return fmt.Errorf("%w: %s has no mapping for %v", ErrUnsupportedType, d.Name(), t)
}

func unsupportedGeneration(d Dialect, g GenerationType) error {
	return fmt.Errorf("%w: %s does not support %s", ErrUnsupportedGeneration, d.Name(), g)
}

func lengthOrDefault(n int) int {
	if n <= 0 {
		return DefaultLength
	}
	return n
}

// quoteString doubles single quotes, the standard SQL escape.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
