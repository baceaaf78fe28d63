package dialect

import (
	"fmt"
	"strings"

	"schemakit/internal/dynamic"
)

// GetDialect resolves a database/sql driver name to its dialect.
func GetDialect(driver string) (dynamic.Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return NewPostgresDialect(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// onDeleteAction maps a deletion policy to the SQL referential action.
// Policies enforced at the application layer (protect, do_nothing) map to
// NO ACTION so the database never cascades on its own.
func onDeleteAction(policy string) string {
	switch policy {
	case "cascade", "":
		return "CASCADE"
	case "set_null":
		return "SET NULL"
	case "restrict":
		return "RESTRICT"
	case "protect", "do_nothing":
		return "NO ACTION"
	}
	return ""
}

// renderDefaultLiteral renders a default value with type-appropriate quoting.
func renderDefaultLiteral(f *dynamic.FieldDefinition, value string) string {
	switch f.Type {
	case dynamic.FieldInteger, dynamic.FieldSmallInt, dynamic.FieldBigInt,
		dynamic.FieldDecimal, dynamic.FieldFloat, dynamic.FieldBoolean,
		dynamic.FieldDuration:
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
