package dialect

import (
	"context"
	"fmt"
	"strings"

	"schemakit/internal/dynamic"
)

// MySQLDialect renders DDL for MySQL and MariaDB. Referential checks are
// suspended per session through FOREIGN_KEY_CHECKS; column changes use
// MODIFY COLUMN and renames use CHANGE COLUMN, which re-states the full
// column definition.
type MySQLDialect struct{}

var _ dynamic.Dialect = (*MySQLDialect)(nil)

func NewMySQLDialect() *MySQLDialect { return &MySQLDialect{} }

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MySQLDialect) ColumnType(f *dynamic.FieldDefinition) (string, error) {
	switch f.Type {
	case dynamic.FieldString, dynamic.FieldEmail, dynamic.FieldSlug, dynamic.FieldURL,
		dynamic.FieldFile, dynamic.FieldImage:
		maxLen := f.MaxLength
		if maxLen == 0 {
			maxLen = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLen), nil
	case dynamic.FieldText:
		return "LONGTEXT", nil
	case dynamic.FieldInteger:
		return "INT", nil
	case dynamic.FieldSmallInt:
		return "SMALLINT", nil
	case dynamic.FieldBigInt, dynamic.FieldForeignKey, dynamic.FieldOneToOne:
		return "BIGINT", nil
	case dynamic.FieldDecimal:
		if f.MaxDigits == nil || f.DecimalPlaces == nil {
			return "", fmt.Errorf("decimal field %q is missing precision", f.Name)
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", *f.MaxDigits, *f.DecimalPlaces), nil
	case dynamic.FieldFloat:
		return "DOUBLE", nil
	case dynamic.FieldBoolean:
		return "TINYINT(1)", nil
	case dynamic.FieldDate:
		return "DATE", nil
	case dynamic.FieldTime:
		return "TIME(6)", nil
	case dynamic.FieldDateTime:
		return "DATETIME(6)", nil
	case dynamic.FieldDuration:
		return "BIGINT", nil
	case dynamic.FieldUUID:
		return "CHAR(36)", nil
	case dynamic.FieldJSON:
		return "JSON", nil
	case dynamic.FieldBinary:
		return "LONGBLOB", nil
	case dynamic.FieldIPAddress:
		return "VARCHAR(45)", nil
	}
	return "", fmt.Errorf("unsupported field type %q", f.Type)
}

// catalogType is the DATA_TYPE spelling information_schema reports.
func (d *MySQLDialect) catalogType(f *dynamic.FieldDefinition) string {
	switch f.Type {
	case dynamic.FieldString, dynamic.FieldEmail, dynamic.FieldSlug, dynamic.FieldURL,
		dynamic.FieldFile, dynamic.FieldImage, dynamic.FieldIPAddress:
		return "varchar"
	case dynamic.FieldText:
		return "longtext"
	case dynamic.FieldInteger:
		return "int"
	case dynamic.FieldSmallInt:
		return "smallint"
	case dynamic.FieldBigInt, dynamic.FieldForeignKey, dynamic.FieldOneToOne, dynamic.FieldDuration:
		return "bigint"
	case dynamic.FieldDecimal:
		return "decimal"
	case dynamic.FieldFloat:
		return "double"
	case dynamic.FieldBoolean:
		return "tinyint"
	case dynamic.FieldDate:
		return "date"
	case dynamic.FieldTime:
		return "time"
	case dynamic.FieldDateTime:
		return "datetime"
	case dynamic.FieldUUID:
		return "char"
	case dynamic.FieldJSON:
		return "json"
	case dynamic.FieldBinary:
		return "longblob"
	}
	return ""
}

func (d *MySQLDialect) ColumnMatches(live dynamic.LiveColumn, f *dynamic.FieldDefinition) (bool, error) {
	want := d.catalogType(f)
	if want == "" {
		return false, fmt.Errorf("unsupported field type %q", f.Type)
	}
	if !strings.EqualFold(live.DataType, want) {
		return false, nil
	}
	return live.Nullable == f.Null, nil
}

func (d *MySQLDialect) columnClause(f *dynamic.FieldDefinition) (string, error) {
	colType, err := d.ColumnType(f)
	if err != nil {
		return "", err
	}
	clause := d.QuoteIdentifier(f.ColumnName()) + " " + colType
	if !f.Null {
		clause += " NOT NULL"
	}
	if f.Unique || f.Type == dynamic.FieldOneToOne {
		clause += " UNIQUE"
	}
	if f.AutoNowAdd {
		clause += " DEFAULT CURRENT_TIMESTAMP(6)"
	} else if f.AutoNow {
		clause += " DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6)"
	} else if f.Default != nil {
		clause += " DEFAULT " + renderDefaultLiteral(f, *f.Default)
	}
	if f.Type == dynamic.FieldForeignKey || f.Type == dynamic.FieldOneToOne {
		if f.RelatedTable == "" {
			return "", fmt.Errorf("reference field %q has no related table resolved", f.Name)
		}
		clause += fmt.Sprintf(" REFERENCES %s(`id`)", d.QuoteIdentifier(f.RelatedTable))
		if action := onDeleteAction(f.OnDelete); action != "" {
			clause += " ON DELETE " + action
		}
	}
	return clause, nil
}

func (d *MySQLDialect) CreateTableSQL(table string, fields []dynamic.FieldDefinition) ([]string, error) {
	clauses := []string{"`id` BIGINT AUTO_INCREMENT PRIMARY KEY"}
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

func (d *MySQLDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

func (d *MySQLDialect) CreateJunctionSQL(junctionTable, ownerTable, relatedTable string) ([]string, error) {
	stmt := fmt.Sprintf(`CREATE TABLE %s (
  `+"`id`"+` BIGINT AUTO_INCREMENT PRIMARY KEY,
  %s BIGINT NOT NULL,
  %s BIGINT NOT NULL,
  UNIQUE (%s, %s),
  FOREIGN KEY (%s) REFERENCES %s(`+"`id`"+`) ON DELETE CASCADE,
  FOREIGN KEY (%s) REFERENCES %s(`+"`id`"+`) ON DELETE CASCADE
)`,
		d.QuoteIdentifier(junctionTable),
		d.QuoteIdentifier(ownerTable+"_id"),
		d.QuoteIdentifier(relatedTable+"_id"),
		d.QuoteIdentifier(ownerTable+"_id"), d.QuoteIdentifier(relatedTable+"_id"),
		d.QuoteIdentifier(ownerTable+"_id"), d.QuoteIdentifier(ownerTable),
		d.QuoteIdentifier(relatedTable+"_id"), d.QuoteIdentifier(relatedTable))
	return []string{stmt}, nil
}

func (d *MySQLDialect) AddColumnSQL(table string, f *dynamic.FieldDefinition) (string, error) {
	clause, err := d.columnClause(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdentifier(table), clause), nil
}

func (d *MySQLDialect) DropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

func (d *MySQLDialect) AlterColumnSQL(table string, f *dynamic.FieldDefinition) ([]string, error) {
	clause, err := d.columnClause(f)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", d.QuoteIdentifier(table), clause),
	}, nil
}

func (d *MySQLDialect) RenameColumnSQL(table, oldColumn string, f *dynamic.FieldDefinition) ([]string, error) {
	clause, err := d.columnClause(f)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s",
			d.QuoteIdentifier(table), d.QuoteIdentifier(oldColumn), clause),
	}, nil
}

func (d *MySQLDialect) TableExists(ctx context.Context, q dynamic.Queryer, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?
	`, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return count > 0, nil
}

func (d *MySQLDialect) ListColumns(ctx context.Context, q dynamic.Queryer, table string) ([]dynamic.LiveColumn, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`, table)
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
		col.Nullable = strings.EqualFold(nullable, "YES")
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *MySQLDialect) DisableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MySQLDialect) EnableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}
