package sqlite

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// appendLimit appends a LIMIT clause to a query builder if limit is > 0.
func appendLimit(query *strings.Builder, args *[]any, limit int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
}

// appendIn appends "column IN (?, ...)" for values, or nothing when empty.
func appendIn(query *strings.Builder, args *[]any, prefix, column string, values []string) {
	if len(values) == 0 {
		return
	}
	query.WriteString(prefix)
	query.WriteString(column)
	query.WriteString(" IN (")
	for i, v := range values {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("?")
		*args = append(*args, v)
	}
	query.WriteString(")")
}

// MatchQuery turns free text into an FTS5 query matching documents that
// contain every term. Terms are quoted so punctuation is never parsed as
// query syntax, and terms without letters or digits are dropped.
func MatchQuery(text string) string {
	var terms []string
	for _, term := range strings.Fields(text) {
		if !strings.ContainsFunc(term, isWordRune) {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(term, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
