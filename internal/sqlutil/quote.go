// Package sqlutil holds the identifier handling shared by the run-history
// store and config validation.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier wraps a MySQL identifier in backticks, doubling any
// backtick inside it.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// History table names come from user config, so only a conservative subset
// of MySQL's identifier alphabet is accepted.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// maxIdentifierLength is MySQL's limit for table names.
const maxIdentifierLength = 64

// IsValidIdentifier reports whether name is a non-empty identifier of at most
// 64 letters, digits and underscores.
func IsValidIdentifier(name string) bool {
	return len(name) <= maxIdentifierLength && validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe validates name and then quotes it.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// QuoteQualified quotes "schema.table" when schema is set and just the
// table otherwise. Both parts must be valid identifiers.
func QuoteQualified(schema, table string) (string, error) {
	quotedTable, err := QuoteIdentifierSafe(table)
	if err != nil {
		return "", err
	}
	if schema == "" {
		return quotedTable, nil
	}
	quotedSchema, err := QuoteIdentifierSafe(schema)
	if err != nil {
		return "", err
	}
	return quotedSchema + "." + quotedTable, nil
}

// InvalidIdentifierError reports a rejected identifier.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must be 1-64 alphanumeric characters or underscores)"
}
