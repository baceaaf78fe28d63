package dynamic

import (
	"context"
	"database/sql"
)

// Queryer is the read surface shared by *sql.Conn, *sql.Tx and *sql.DB.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is the write surface shared by *sql.Conn, *sql.Tx and *sql.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LiveColumn is one column as reported by backend introspection.
type LiveColumn struct {
	Name     string
	DataType string
	Nullable bool
	Default  sql.NullString
}

// Dialect abstracts the backend-specific pieces of schema synchronization:
// DDL rendering, catalog introspection, and constraint suspension. All SQL is
// rendered as complete statements; the synchronizer only sequences and
// executes them.
type Dialect interface {
	Name() string

	QuoteIdentifier(name string) string

	// ColumnType renders the bare SQL type of a field, without constraints.
	ColumnType(f *FieldDefinition) (string, error)

	// ColumnMatches reports whether a live column already satisfies a field
	// definition. The dialect owns this comparison because each backend
	// reports catalog type names in its own spelling.
	ColumnMatches(live LiveColumn, f *FieldDefinition) (bool, error)

	CreateTableSQL(table string, fields []FieldDefinition) ([]string, error)
	DropTableSQL(table string) string
	CreateJunctionSQL(junctionTable, ownerTable, relatedTable string) ([]string, error)

	AddColumnSQL(table string, f *FieldDefinition) (string, error)
	DropColumnSQL(table, column string) string
	AlterColumnSQL(table string, f *FieldDefinition) ([]string, error)
	RenameColumnSQL(table, oldColumn string, f *FieldDefinition) ([]string, error)

	TableExists(ctx context.Context, q Queryer, table string) (bool, error)
	ListColumns(ctx context.Context, q Queryer, table string) ([]LiveColumn, error)

	// DisableForeignKeys suspends referential checks on the given connection
	// for the duration of a schema edit; EnableForeignKeys restores them.
	// Both operate on connection/session scope, never globally.
	DisableForeignKeys(ctx context.Context, e Execer) error
	EnableForeignKeys(ctx context.Context, e Execer) error
}
