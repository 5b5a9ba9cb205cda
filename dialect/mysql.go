package dialect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mickamy/gopa/internal/ident"
)

// MySQL renders MySQL flavored SQL.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (d MySQL) ColumnType(t reflect.Type, length int) (string, error) {
	switch classify(t) {
	case classString:
		return fmt.Sprintf("varchar(%d)", lengthOrDefault(length)), nil
	case classInt:
		return "integer", nil
	case classBigInt:
		return "bigint", nil
	case classFloat:
		return "double", nil
	case classBool:
		return "boolean", nil
	case classTime:
		return "datetime", nil
	case classBytes:
		return "blob", nil
	}
	return "", unsupportedType(d, t)
}

func (d MySQL) IDStrategy(g GenerationType) (IDStrategy, error) {
	switch g {
	case GenerationIdentity, GenerationAuto:
		return IDStrategy{Type: GenerationIdentity, autoIncrement: true}, nil
	case GenerationNone:
		return IDStrategy{Type: GenerationNone}, nil
	}
	return IDStrategy{}, unsupportedGeneration(d, g)
}

func (d MySQL) IDColumnDefinition(name, sqlType string, autoIncrement bool) string {
	if autoIncrement {
		return d.QuoteIdentifier(name) + " " + sqlType + " auto_increment primary key"
	}
	return d.QuoteIdentifier(name) + " " + sqlType + " primary key"
}

func (MySQL) QuoteIdentifier(name string) string {
	return ident.QuoteQualified(ident.SplitQualified(name), '`')
}

func (MySQL) NullLiteral() string { return "null" }

// StringLiteral also escapes backslashes, which MySQL treats as an escape character
// unless NO_BACKSLASH_ESCAPES is set.
func (MySQL) StringLiteral(s string) string {
	return quoteString(strings.ReplaceAll(s, `\`, `\\`))
}

func (MySQL) BoolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (MySQL) SupportsReturning() bool { return false }
