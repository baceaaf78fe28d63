package dialect

import (
	"context"
	"fmt"
	"strings"

	"schemakit/internal/dynamic"
)

// PostgresDialect renders DDL for PostgreSQL and introspects through
// information_schema. Referential checks are suspended per session via
// session_replication_role, so triggers and foreign keys stay defined while
// an edit runs.
type PostgresDialect struct{}

var _ dynamic.Dialect = (*PostgresDialect)(nil)

func NewPostgresDialect() *PostgresDialect { return &PostgresDialect{} }

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) ColumnType(f *dynamic.FieldDefinition) (string, error) {
	switch f.Type {
	case dynamic.FieldString, dynamic.FieldEmail, dynamic.FieldSlug, dynamic.FieldURL,
		dynamic.FieldFile, dynamic.FieldImage:
		maxLen := f.MaxLength
		if maxLen == 0 {
			maxLen = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLen), nil
	case dynamic.FieldText:
		return "TEXT", nil
	case dynamic.FieldInteger:
		return "INTEGER", nil
	case dynamic.FieldSmallInt:
		return "SMALLINT", nil
	case dynamic.FieldBigInt, dynamic.FieldForeignKey, dynamic.FieldOneToOne:
		return "BIGINT", nil
	case dynamic.FieldDecimal:
		if f.MaxDigits == nil || f.DecimalPlaces == nil {
			return "", fmt.Errorf("decimal field %q is missing precision", f.Name)
		}
		return fmt.Sprintf("NUMERIC(%d,%d)", *f.MaxDigits, *f.DecimalPlaces), nil
	case dynamic.FieldFloat:
		return "DOUBLE PRECISION", nil
	case dynamic.FieldBoolean:
		return "BOOLEAN", nil
	case dynamic.FieldDate:
		return "DATE", nil
	case dynamic.FieldTime:
		return "TIME", nil
	case dynamic.FieldDateTime:
		return "TIMESTAMPTZ", nil
	case dynamic.FieldDuration:
		return "INTERVAL", nil
	case dynamic.FieldUUID:
		return "UUID", nil
	case dynamic.FieldJSON:
		return "JSONB", nil
	case dynamic.FieldBinary:
		return "BYTEA", nil
	case dynamic.FieldIPAddress:
		return "INET", nil
	}
	return "", fmt.Errorf("unsupported field type %q", f.Type)
}

// catalogType is the spelling information_schema reports for each field type.
func (d *PostgresDialect) catalogType(f *dynamic.FieldDefinition) string {
	switch f.Type {
	case dynamic.FieldString, dynamic.FieldEmail, dynamic.FieldSlug, dynamic.FieldURL,
		dynamic.FieldFile, dynamic.FieldImage:
		return "character varying"
	case dynamic.FieldText:
		return "text"
	case dynamic.FieldInteger:
		return "integer"
	case dynamic.FieldSmallInt:
		return "smallint"
	case dynamic.FieldBigInt, dynamic.FieldForeignKey, dynamic.FieldOneToOne:
		return "bigint"
	case dynamic.FieldDecimal:
		return "numeric"
	case dynamic.FieldFloat:
		return "double precision"
	case dynamic.FieldBoolean:
		return "boolean"
	case dynamic.FieldDate:
		return "date"
	case dynamic.FieldTime:
		return "time without time zone"
	case dynamic.FieldDateTime:
		return "timestamp with time zone"
	case dynamic.FieldDuration:
		return "interval"
	case dynamic.FieldUUID:
		return "uuid"
	case dynamic.FieldJSON:
		return "jsonb"
	case dynamic.FieldBinary:
		return "bytea"
	case dynamic.FieldIPAddress:
		return "inet"
	}
	return ""
}

func (d *PostgresDialect) ColumnMatches(live dynamic.LiveColumn, f *dynamic.FieldDefinition) (bool, error) {
	want := d.catalogType(f)
	if want == "" {
		return false, fmt.Errorf("unsupported field type %q", f.Type)
	}
	if !strings.EqualFold(live.DataType, want) {
		return false, nil
	}
	return live.Nullable == f.Null, nil
}

func (d *PostgresDialect) columnClause(f *dynamic.FieldDefinition) (string, error) {
	colType, err := d.ColumnType(f)
	if err != nil {
		return "", err
	}
	clause := d.QuoteIdentifier(f.ColumnName()) + " " + colType

	if !f.Null {
		clause += " NOT NULL"
	}
	if f.Unique {
		clause += " UNIQUE"
	}
	if def := d.defaultClause(f); def != "" {
		clause += " DEFAULT " + def
	}
	if f.Type == dynamic.FieldForeignKey || f.Type == dynamic.FieldOneToOne {
		if f.RelatedTable == "" {
			return "", fmt.Errorf("reference field %q has no related table resolved", f.Name)
		}
		clause += fmt.Sprintf(` REFERENCES %s("id")`, d.QuoteIdentifier(f.RelatedTable))
		if action := onDeleteAction(f.OnDelete); action != "" {
			clause += " ON DELETE " + action
		}
		if f.Type == dynamic.FieldOneToOne && !f.Unique {
			clause += " UNIQUE"
		}
	}
	return clause, nil
}

func (d *PostgresDialect) defaultClause(f *dynamic.FieldDefinition) string {
	if f.AutoNowAdd || f.AutoNow {
		return "CURRENT_TIMESTAMP"
	}
	if f.Default == nil {
		return ""
	}
	return renderDefaultLiteral(f, *f.Default)
}

func (d *PostgresDialect) CreateTableSQL(table string, fields []dynamic.FieldDefinition) ([]string, error) {
	clauses := []string{`"id" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY`}
	for i := range fields {
		clause, err := d.columnClause(&fields[i])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteIdentifier(table), strings.Join(clauses, ",\n  "))
	return []string{stmt}, nil
}

func (d *PostgresDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QuoteIdentifier(table))
}

func (d *PostgresDialect) CreateJunctionSQL(junctionTable, ownerTable, relatedTable string) ([]string, error) {
	stmt := fmt.Sprintf(`CREATE TABLE %s (
  "id" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  %s BIGINT NOT NULL REFERENCES %s("id") ON DELETE CASCADE,
  %s BIGINT NOT NULL REFERENCES %s("id") ON DELETE CASCADE,
  UNIQUE (%s, %s)
)`,
		d.QuoteIdentifier(junctionTable),
		d.QuoteIdentifier(ownerTable+"_id"), d.QuoteIdentifier(ownerTable),
		d.QuoteIdentifier(relatedTable+"_id"), d.QuoteIdentifier(relatedTable),
		d.QuoteIdentifier(ownerTable+"_id"), d.QuoteIdentifier(relatedTable+"_id"))
	return []string{stmt}, nil
}

func (d *PostgresDialect) AddColumnSQL(table string, f *dynamic.FieldDefinition) (string, error) {
	clause, err := d.columnClause(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdentifier(table), clause), nil
}

func (d *PostgresDialect) DropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s CASCADE",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

func (d *PostgresDialect) AlterColumnSQL(table string, f *dynamic.FieldDefinition) ([]string, error) {
	colType, err := d.ColumnType(f)
	if err != nil {
		return nil, err
	}
	qt := d.QuoteIdentifier(table)
	qc := d.QuoteIdentifier(f.ColumnName())

	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s", qt, qc, colType, qc, colType),
	}
	if f.Null {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", qt, qc))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", qt, qc))
	}
	if def := d.defaultClause(f); def != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qt, qc, def))
	} else {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qt, qc))
	}
	return stmts, nil
}

func (d *PostgresDialect) RenameColumnSQL(table, oldColumn string, f *dynamic.FieldDefinition) ([]string, error) {
	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdentifier(table), d.QuoteIdentifier(oldColumn), d.QuoteIdentifier(f.ColumnName())),
	}
	// A hinted rename may change the type at the same time.
	alter, err := d.AlterColumnSQL(table, f)
	if err != nil {
		return nil, err
	}
	return append(stmts, alter...), nil
}

func (d *PostgresDialect) TableExists(ctx context.Context, q dynamic.Queryer, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`
	var exists bool
	if err := q.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return exists, nil
}

func (d *PostgresDialect) ListColumns(ctx context.Context, q dynamic.Queryer, table string) ([]dynamic.LiveColumn, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []dynamic.LiveColumn
	for rows.Next() {
		var col dynamic.LiveColumn
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *PostgresDialect) DisableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "SET session_replication_role = replica")
	return err
}

func (d *PostgresDialect) EnableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "SET session_replication_role = origin")
	return err
}
