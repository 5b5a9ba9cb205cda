package dialect

import (
	"reflect"

	"github.com/mickamy/gopa/internal/ident"
)

// SQLite renders SQLite flavored SQL.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (d SQLite) ColumnType(t reflect.Type, _ int) (string, error) {
	switch classify(t) {
	case classString, classTime:
		return "text", nil
	case classInt, classBigInt, classBool:
		return "integer", nil
	case classFloat:
		return "real", nil
	case classBytes:
		return "blob", nil
	}
	return "", unsupportedType(d, t)
}

func (d SQLite) IDStrategy(g GenerationType) (IDStrategy, error) {
	switch g {
	case GenerationIdentity, GenerationAuto:
		return IDStrategy{Type: GenerationIdentity, autoIncrement: true}, nil
	case GenerationNone:
		return IDStrategy{Type: GenerationNone}, nil
	}
	return IDStrategy{}, unsupportedGeneration(d, g)
}

// IDColumnDefinition always declares the id as integer when it is generated; SQLite only
// assigns rowids to "integer primary key" columns.
func (d SQLite) IDColumnDefinition(name, sqlType string, autoIncrement bool) string {
	if autoIncrement {
		return d.QuoteIdentifier(name) + " integer primary key autoincrement"
	}
	return d.QuoteIdentifier(name) + " " + sqlType + " primary key"
}

func (SQLite) QuoteIdentifier(name string) string {
	return ident.QuoteQualified(ident.SplitQualified(name), '"')
}

func (SQLite) NullLiteral() string { return "null" }

func (SQLite) StringLiteral(s string) string { return quoteString(s) }

func (SQLite) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (SQLite) SupportsReturning() bool { return false }
