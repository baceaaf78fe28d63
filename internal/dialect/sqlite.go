package dialect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"schemakit/internal/dynamic"
)

// SQLiteDialect renders DDL for SQLite. Column types and nullability cannot
// be altered in place, and RENAME COLUMN only exists from 3.25 on, so
// anything beyond plain add/drop goes through a full table rebuild.
type SQLiteDialect struct {
	// renameSupported reflects whether the linked SQLite understands
	// ALTER TABLE ... RENAME COLUMN. Defaults to true; DetectCapabilities
	// flips it for old libraries.
	renameSupported bool
}

var (
	_ dynamic.Dialect        = (*SQLiteDialect)(nil)
	_ dynamic.TableRebuilder = (*SQLiteDialect)(nil)
)

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{renameSupported: true}
}

// DetectCapabilities probes sqlite_version() and records whether column
// renames are supported natively.
func (d *SQLiteDialect) DetectCapabilities(ctx context.Context, q dynamic.Queryer) error {
	var version string
	if err := q.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("reading sqlite version: %w", err)
	}
	d.renameSupported = sqliteVersionAtLeast(version, 3, 25)
	return nil
}

func sqliteVersionAtLeast(version string, major, minor int) bool {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return maj > major || (maj == major && min >= minor)
}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SQLiteDialect) ColumnType(f *dynamic.FieldDefinition) (string, error) {
	switch f.Type {
	case dynamic.FieldString, dynamic.FieldEmail, dynamic.FieldSlug, dynamic.FieldURL,
		dynamic.FieldFile, dynamic.FieldImage:
		maxLen := f.MaxLength
		if maxLen == 0 {
			maxLen = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLen), nil
	case dynamic.FieldText, dynamic.FieldJSON:
		return "TEXT", nil
	case dynamic.FieldInteger, dynamic.FieldSmallInt:
		return "INTEGER", nil
	case dynamic.FieldBigInt, dynamic.FieldForeignKey, dynamic.FieldOneToOne:
		return "BIGINT", nil
	case dynamic.FieldDecimal:
		if f.MaxDigits == nil || f.DecimalPlaces == nil {
			return "", fmt.Errorf("decimal field %q is missing precision", f.Name)
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", *f.MaxDigits, *f.DecimalPlaces), nil
	case dynamic.FieldFloat:
		return "REAL", nil
	case dynamic.FieldBoolean:
		return "BOOLEAN", nil
	case dynamic.FieldDate:
		return "DATE", nil
	case dynamic.FieldTime:
		return "TIME", nil
	case dynamic.FieldDateTime:
		return "DATETIME", nil
	case dynamic.FieldDuration:
		return "BIGINT", nil
	case dynamic.FieldUUID:
		return "CHAR(36)", nil
	case dynamic.FieldBinary:
		return "BLOB", nil
	case dynamic.FieldIPAddress:
		return "VARCHAR(45)", nil
	}
	return "", fmt.Errorf("unsupported field type %q", f.Type)
}

// ColumnMatches compares against the declared type PRAGMA table_info echoes
// back verbatim.
func (d *SQLiteDialect) ColumnMatches(live dynamic.LiveColumn, f *dynamic.FieldDefinition) (bool, error) {
	want, err := d.ColumnType(f)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(strings.TrimSpace(live.DataType), want) {
		return false, nil
	}
	return live.Nullable == f.Null, nil
}

func (d *SQLiteDialect) columnClause(f *dynamic.FieldDefinition) (string, error) {
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
	if f.AutoNowAdd || f.AutoNow {
		clause += " DEFAULT CURRENT_TIMESTAMP"
	} else if f.Default != nil {
		clause += " DEFAULT " + renderDefaultLiteral(f, *f.Default)
	}
	if f.Type == dynamic.FieldForeignKey || f.Type == dynamic.FieldOneToOne {
		if f.RelatedTable == "" {
			return "", fmt.Errorf("reference field %q has no related table resolved", f.Name)
		}
		clause += fmt.Sprintf(` REFERENCES %s("id")`, d.QuoteIdentifier(f.RelatedTable))
		if action := onDeleteAction(f.OnDelete); action != "" {
			clause += " ON DELETE " + action
		}
	}
	return clause, nil
}

func (d *SQLiteDialect) CreateTableSQL(table string, fields []dynamic.FieldDefinition) ([]string, error) {
	clauses := []string{`"id" INTEGER PRIMARY KEY AUTOINCREMENT`}
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

func (d *SQLiteDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdentifier(table))
}

func (d *SQLiteDialect) CreateJunctionSQL(junctionTable, ownerTable, relatedTable string) ([]string, error) {
	stmt := fmt.Sprintf(`CREATE TABLE %s (
  "id" INTEGER PRIMARY KEY AUTOINCREMENT,
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

func (d *SQLiteDialect) AddColumnSQL(table string, f *dynamic.FieldDefinition) (string, error) {
	clause, err := d.columnClause(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdentifier(table), clause), nil
}

func (d *SQLiteDialect) DropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

// AlterColumnSQL is never reachable: modifications force a rebuild through
// NeedsRebuild.
func (d *SQLiteDialect) AlterColumnSQL(table string, f *dynamic.FieldDefinition) ([]string, error) {
	return nil, fmt.Errorf("sqlite cannot alter column %q in place", f.ColumnName())
}

func (d *SQLiteDialect) RenameColumnSQL(table, oldColumn string, f *dynamic.FieldDefinition) ([]string, error) {
	if !d.renameSupported {
		return nil, fmt.Errorf("sqlite library too old to rename column %q", oldColumn)
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdentifier(table), d.QuoteIdentifier(oldColumn), d.QuoteIdentifier(f.ColumnName())),
	}, nil
}

// NeedsRebuild reports whether the diff requires the copy-and-swap path:
// always for modifications, and for renames when the library predates
// RENAME COLUMN.
func (d *SQLiteDialect) NeedsRebuild(diff *dynamic.ColumnDiff) bool {
	if len(diff.Modify) > 0 {
		return true
	}
	return len(diff.Rename) > 0 && !d.renameSupported
}

// RebuildTableSQL implements the classic SQLite schema-change dance: build a
// scratch table with the desired shape, copy surviving data, drop the old
// table and rename the scratch into place.
func (d *SQLiteDialect) RebuildTableSQL(table string, fields []dynamic.FieldDefinition, copyColumns map[string]string) ([]string, error) {
	scratch := table + "__rebuild"
	create, err := d.CreateTableSQL(scratch, fields)
	if err != nil {
		return nil, err
	}

	destCols := []string{`"id"`}
	srcCols := []string{`"id"`}
	for i := range fields {
		col := fields[i].ColumnName()
		src, ok := copyColumns[col]
		if !ok {
			continue
		}
		destCols = append(destCols, d.QuoteIdentifier(col))
		srcCols = append(srcCols, d.QuoteIdentifier(src))
	}

	stmts := create
	stmts = append(stmts,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			d.QuoteIdentifier(scratch), strings.Join(destCols, ", "),
			strings.Join(srcCols, ", "), d.QuoteIdentifier(table)),
		fmt.Sprintf("DROP TABLE %s", d.QuoteIdentifier(table)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
			d.QuoteIdentifier(scratch), d.QuoteIdentifier(table)),
	)
	return stmts, nil
}

func (d *SQLiteDialect) TableExists(ctx context.Context, q dynamic.Queryer, table string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return count > 0, nil
}

func (d *SQLiteDialect) ListColumns(ctx context.Context, q dynamic.Queryer, table string) ([]dynamic.LiveColumn, error) {
	// PRAGMA arguments cannot be bound; the identifier is quoted instead.
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []dynamic.LiveColumn
	for rows.Next() {
		var (
			cid     int
			col     dynamic.LiveColumn
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.Default, &pk); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *SQLiteDialect) DisableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	return err
}

func (d *SQLiteDialect) EnableForeignKeys(ctx context.Context, e dynamic.Execer) error {
	_, err := e.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	return err
}
