package helper

import (
	"regexp"
	"strings"
)

var AppIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// IsValidAppID reports whether s is safe to use as the app segment of the query URL.
func IsValidAppID(s string) bool {
	return AppIDRegex.MatchString(s)
}

var kqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeKQLString escapes s for use inside a double-quoted KQL string literal.
func EscapeKQLString(s string) string {
	return kqlEscaper.Replace(s)
}
