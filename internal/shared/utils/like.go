package utils

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching s literally anywhere in the
// column. Backslash is the default LIKE escape character in Postgres.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
