package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a free-text search term into a lowercase LIKE pattern that matches the
// term literally anywhere in a column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// searchClause ORs a case-insensitive containsPattern match over the columns. It takes one
// argument per column.
func searchClause(columns ...string) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, "LOWER("+column+`) LIKE ? ESCAPE '\'`)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
