package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// A row tuple of a multi-row insert, e.g. "($1, $2, $3)".
	queryValuesTupleRegex = regexp.MustCompile(`\(\$\d+(?:, \$\d+)*\)`)
)

// formatDBQueryForTrace flattens whitespace and keeps only the first row of
// chunked match inserts so span attributes stay readable.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = collapseInsertRows(normalized)
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}

func collapseInsertRows(query string) string {
	idx := strings.Index(query, " VALUES (")
	if idx < 0 || !strings.HasPrefix(query, "INSERT ") {
		return query
	}

	head, tail := query[:idx+len(" VALUES ")], query[idx+len(" VALUES "):]
	rows := queryValuesTupleRegex.FindAllStringIndex(tail, -1)
	if len(rows) < 2 || rows[0][0] != 0 {
		return query
	}

	last := rows[len(rows)-1][1]
	return head + tail[:rows[0][1]] + " /* +" + strconv.Itoa(len(rows)-1) + " rows */" + tail[last:]
}
