package dynamic

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
)

// Synchronizer reconciles live database tables with model definitions. Each
// model synchronizes under its own lock on a dedicated connection, with
// referential checks suspended for the duration of the edit and every DDL
// change applied in a single transaction.
type Synchronizer struct {
	db      *sql.DB
	dialect Dialect

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSynchronizer(db *sql.DB, dialect Dialect) *Synchronizer {
	return &Synchronizer{
		db:      db,
		dialect: dialect,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Synchronizer) lockFor(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[table]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[table] = l
	return l
}

// Synchronize brings the model's physical table in line with its definition:
// creates it when missing, otherwise applies the column diff. Re-running
// against an already-synchronized table is a no-op.
func (s *Synchronizer) Synchronize(ctx context.Context, def *ModelDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}

	table := def.TableName()
	lock := s.lockFor(table)
	lock.Lock()
	defer lock.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	defer conn.Close()

	if err := s.dialect.DisableForeignKeys(ctx, conn); err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	defer func() {
		if err := s.dialect.EnableForeignKeys(ctx, conn); err != nil {
			log.Printf("failed to re-enable foreign key checks on %s: %v", table, err)
		}
	}()

	if err := s.apply(ctx, conn, def, table); err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	return nil
}

func (s *Synchronizer) apply(ctx context.Context, conn *sql.Conn, def *ModelDefinition, table string) error {
	exists, err := s.dialect.TableExists(ctx, conn, table)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if !exists {
		stmts, err := s.dialect.CreateTableSQL(table, def.Columns())
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("creating table %s: %w", table, err)
			}
		}
	} else {
		live, err := s.dialect.ListColumns(ctx, tx, table)
		if err != nil {
			return err
		}
		diff, err := DiffColumns(live, def, s.dialect)
		if err != nil {
			return err
		}
		if err := s.applyDiff(ctx, tx, def, table, diff); err != nil {
			return err
		}
	}

	if err := s.ensureJunctionTables(ctx, tx, def); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TableRebuilder is implemented by dialects that cannot express parts of a
// diff as in-place ALTER statements and instead rebuild the whole table,
// copying data across.
type TableRebuilder interface {
	NeedsRebuild(diff *ColumnDiff) bool
	RebuildTableSQL(table string, fields []FieldDefinition, copyColumns map[string]string) ([]string, error)
}

// applyDiff executes the diff in a fixed order: renames first so that the
// add and remove buckets operate on final column names, then additions,
// modifications, and removals last.
func (s *Synchronizer) applyDiff(ctx context.Context, tx *sql.Tx, def *ModelDefinition, table string, diff *ColumnDiff) error {
	if rb, ok := s.dialect.(TableRebuilder); ok && rb.NeedsRebuild(diff) {
		return s.rebuildTable(ctx, tx, rb, def, table, diff)
	}

	for _, r := range diff.Rename {
		stmts, err := s.dialect.RenameColumnSQL(table, r.From, &r.Field)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("renaming column %s.%s: %w", table, r.From, err)
			}
		}
	}

	for _, f := range diff.Add {
		stmt, err := s.dialect.AddColumnSQL(table, &f)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, f.ColumnName(), err)
		}
	}

	for _, f := range diff.Modify {
		stmts, err := s.dialect.AlterColumnSQL(table, &f)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("altering column %s.%s: %w", table, f.ColumnName(), err)
			}
		}
	}

	for _, name := range diff.Remove {
		stmt := s.dialect.DropColumnSQL(table, name)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping column %s.%s: %w", table, name, err)
		}
	}

	return nil
}

// rebuildTable recreates the table under a scratch name with the desired
// shape, copies surviving column data across, and swaps it in. Renamed
// columns copy from their old name; added columns start empty.
func (s *Synchronizer) rebuildTable(ctx context.Context, tx *sql.Tx, rb TableRebuilder, def *ModelDefinition, table string, diff *ColumnDiff) error {
	copyColumns := make(map[string]string)
	for _, name := range diff.Unchanged {
		copyColumns[name] = name
	}
	for _, f := range diff.Modify {
		copyColumns[f.ColumnName()] = f.ColumnName()
	}
	for _, r := range diff.Rename {
		copyColumns[r.Field.ColumnName()] = r.From
	}

	stmts, err := rb.RebuildTableSQL(table, def.Columns(), copyColumns)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("rebuilding table %s: %w", table, err)
		}
	}
	return nil
}

func (s *Synchronizer) ensureJunctionTables(ctx context.Context, tx *sql.Tx, def *ModelDefinition) error {
	for _, f := range def.JunctionFields() {
		junction := def.JunctionTableName(&f)
		exists, err := s.dialect.TableExists(ctx, tx, junction)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		related := f.RelatedTable
		if related == "" {
			return fmt.Errorf("many-to-many field %q has no related table resolved", f.Name)
		}
		stmts, err := s.dialect.CreateJunctionSQL(junction, def.TableName(), related)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("creating junction table %s: %w", junction, err)
			}
		}
	}
	return nil
}

// DropModel removes the model's physical table and its junction tables.
// Missing tables are not an error; dropping twice is a no-op.
func (s *Synchronizer) DropModel(ctx context.Context, def *ModelDefinition) error {
	table := def.TableName()
	lock := s.lockFor(table)
	lock.Lock()
	defer lock.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	defer conn.Close()

	if err := s.dialect.DisableForeignKeys(ctx, conn); err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	defer func() {
		if err := s.dialect.EnableForeignKeys(ctx, conn); err != nil {
			log.Printf("failed to re-enable foreign key checks on %s: %v", table, err)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	defer tx.Rollback()

	for _, f := range def.JunctionFields() {
		junction := def.JunctionTableName(&f)
		if _, err := tx.ExecContext(ctx, s.dialect.DropTableSQL(junction)); err != nil {
			return fmt.Errorf("schema editing failed: dropping %s: %w", junction, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.dialect.DropTableSQL(table)); err != nil {
		return fmt.Errorf("schema editing failed: dropping %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("schema editing failed: %w", err)
	}
	return nil
}
