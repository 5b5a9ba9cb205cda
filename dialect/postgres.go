package dialect

import (
	"fmt"
	"reflect"

	"github.com/mickamy/gopa/internal/ident"
)

// Postgres renders PostgreSQL flavored SQL. Generated keys are read back with RETURNING.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (d Postgres) ColumnType(t reflect.Type, length int) (string, error) {
	switch classify(t) {
	case classString:
		return fmt.Sprintf("varchar(%d)", lengthOrDefault(length)), nil
	case classInt:
		return "integer", nil
	case classBigInt:
		return "bigint", nil
	case classFloat:
		return "double precision", nil
	case classBool:
		return "boolean", nil
	case classTime:
		return "timestamp", nil
	case classBytes:
		return "bytea", nil
	}
	return "", unsupportedType(d, t)
}

func (d Postgres) IDStrategy(g GenerationType) (IDStrategy, error) {
	switch g {
	case GenerationIdentity, GenerationAuto:
		return IDStrategy{Type: GenerationIdentity, autoIncrement: true}, nil
	case GenerationSequence:
		return IDStrategy{Type: GenerationSequence}, nil
	case GenerationNone:
		return IDStrategy{Type: GenerationNone}, nil
	}
	return IDStrategy{}, unsupportedGeneration(d, g)
}

func (d Postgres) IDColumnDefinition(name, sqlType string, autoIncrement bool) string {
	if autoIncrement {
		serial := "bigserial"
		if sqlType == "integer" {
			serial = "serial"
		}
		return d.QuoteIdentifier(name) + " " + serial + " primary key"
	}
	return d.QuoteIdentifier(name) + " " + sqlType + " primary key"
}

func (Postgres) QuoteIdentifier(name string) string {
	return ident.QuoteQualified(ident.SplitQualified(name), '"')
}

func (Postgres) NullLiteral() string { return "null" }

func (Postgres) StringLiteral(s string) string { return quoteString(s) }

func (Postgres) BoolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (Postgres) SupportsReturning() bool { return true }
