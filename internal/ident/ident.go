package ident

import (
	"strings"
	"unicode"
)

// reserved lists words that must be quoted when used as a table or column name.
var reserved = map[string]struct{}{
	"add": {}, "all": {}, "and": {}, "as": {}, "by": {}, "column": {}, "create": {}, "default": {},
	"delete": {}, "desc": {}, "drop": {}, "from": {}, "group": {}, "index": {}, "insert": {}, "into": {},
	"key": {}, "limit": {}, "not": {}, "null": {}, "or": {}, "order": {}, "primary": {}, "select": {},
	"set": {}, "table": {}, "to": {}, "update": {}, "user": {}, "values": {}, "where": {},
}

// SplitQualified splits a potentially schema-qualified identifier into its parts.
func SplitQualified(ident string) []string {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil
	}
	var parts []string
	var buf strings.Builder
	inQuotes := false
	runes := []rune(ident)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '"', '`':
			if inQuotes && i+1 < len(runes) && runes[i+1] == r {
				buf.WriteRune(r)
				i++
				continue
			}
			inQuotes = !inQuotes
		case '.':
			if inQuotes {
				buf.WriteRune(r)
				continue
			}
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	parts = append(parts, strings.TrimSpace(buf.String()))
	return parts
}

// StripAlias removes trailing alias tokens from an identifier while preserving quotes.
func StripAlias(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",")
	runes := []rune(s)
	inQuotes := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '"', '`':
			inQuotes = !inQuotes
		default:
			if !inQuotes && unicode.IsSpace(r) {
				return strings.TrimSpace(string(runes[:i]))
			}
		}
	}
	return s
}

// NeedsQuoting reports whether part cannot be rendered as a bare identifier.
func NeedsQuoting(part string) bool {
	if part == "" {
		return true
	}
	if _, ok := reserved[part]; ok {
		return true
	}
	for i, r := range part {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return true
		}
	}
	return false
}

// Quote safely quotes a single identifier part with the given quote character.
func Quote(part string, q rune) string {
	qs := string(q)
	return qs + strings.ReplaceAll(part, qs, qs+qs) + qs
}

// QuoteIfNeeded quotes part only when it cannot be rendered bare.
func QuoteIfNeeded(part string, q rune) string {
	if NeedsQuoting(part) {
		return Quote(part, q)
	}
	return part
}

// QuoteQualified renders qualified identifier parts as a SQL identifier, quoting only the parts that need it.
func QuoteQualified(parts []string, q rune) string {
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = QuoteIfNeeded(p, q)
	}
	return strings.Join(quoted, ".")
}
