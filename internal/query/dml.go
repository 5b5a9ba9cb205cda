package query

import (
	"regexp"
	"strings"

	"github.com/mickamy/gopa/internal/ident"
)

// Statement describes a recognized top-level statement.
type Statement struct {
	Op           string // SELECT, INSERT, UPDATE, DELETE, CREATE, DROP
	Table        string // possibly schema-qualified
	HasReturning bool
}

var (
	reSelect    = regexp.MustCompile(`(?is)^\s*select\b.*?\bfrom\s+([^\s(;]+)`)
	reInsert    = regexp.MustCompile(`(?is)^\s*insert\s+into\s+([^\s(]+)`)
	reUpdate    = regexp.MustCompile(`(?is)^\s*update\s+([^\s]+(?:\s+(?:as\s+)?[^\s]+)?)\s+set\b`)
	reDelete    = regexp.MustCompile(`(?is)^\s*delete\s+from\s+([^\s;]+(?:\s+(?:as\s+)?[^\s;]+)?)`)
	reCreate    = regexp.MustCompile(`(?is)^\s*create\s+table\s+(?:if\s+not\s+exists\s+)?([^\s(]+)`)
	reDrop      = regexp.MustCompile(`(?is)^\s*drop\s+table\s+(?:if\s+exists\s+)?([^\s;]+)`)
	reReturning = regexp.MustCompile(`(?is)\breturning\b`)
)

var patterns = []struct {
	op string
	re *regexp.Regexp
}{
	{op: "SELECT", re: reSelect},
	{op: "INSERT", re: reInsert},
	{op: "UPDATE", re: reUpdate},
	{op: "DELETE", re: reDelete},
	{op: "CREATE", re: reCreate},
	{op: "DROP", re: reDrop},
}

// Parse attempts to recognize a single top-level statement and return its metadata.
func Parse(q string) (Statement, bool) {
	qs := strings.TrimSpace(q)
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(qs); len(m) == 2 {
			return Statement{Op: p.op, Table: ident.StripAlias(m[1]), HasReturning: reReturning.MatchString(qs)}, true
		}
	}
	return Statement{}, false
}

// AppendReturning appends "returning <column>" to the provided statement if non-empty.
// It preserves trailing semicolons by re-attaching them after the clause.
func AppendReturning(q, column string) (string, bool) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" || column == "" {
		return q, false
	}

	hasSemicolon := false
	for strings.HasSuffix(trimmed, ";") {
		hasSemicolon = true
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-1])
	}
	if trimmed == "" {
		return q, false
	}

	var b strings.Builder
	b.WriteString(trimmed)
	b.WriteString(" returning ")
	b.WriteString(column)
	if hasSemicolon {
		b.WriteString(";")
	}
	return b.String(), true
}
