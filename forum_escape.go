package ipbauth

import "strings"

var mysqlEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"'", "\\'",
	`"`, `\"`,
	"\x1a", "\\Z",
)

// EscapeString applies the MySQL client escaping the forum software runs
// over lookup values. It is applied on top of Sanitize so bound parameters
// carry the same bytes the forum compares against.
func EscapeString(s string) string {
	return mysqlEscaper.Replace(s)
}

// lookupName prepares a submitted username for forum lookups
func lookupName(username string) string {
	return EscapeString(Sanitize(username))
}

// underscoreVariant returns name with spaces replaced by underscores
func underscoreVariant(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
