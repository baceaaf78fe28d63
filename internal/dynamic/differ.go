package dynamic

import "fmt"

// RenameColumn pairs an existing column with the field definition it becomes.
type RenameColumn struct {
	From  string
	Field FieldDefinition
}

// ColumnDiff is the plan produced by comparing live columns against a model
// definition. Every column in the union of live and declared, except the
// primary key, lands in exactly one bucket.
type ColumnDiff struct {
	Add       []FieldDefinition
	Remove    []string
	Modify    []FieldDefinition
	Rename    []RenameColumn
	Unchanged []string
}

// Empty reports whether applying the diff would change anything.
func (d *ColumnDiff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Modify) == 0 && len(d.Rename) == 0
}

// DiffColumns compares the live table shape with the declared model fields.
// The primary key column is never touched. Rename detection runs in two
// stages: explicit PreviousName hints are authoritative and win even when the
// column type changed; leftover add/remove pairs are then matched by type so
// that a plain rename does not destroy column data.
func DiffColumns(live []LiveColumn, def *ModelDefinition, dialect Dialect) (*ColumnDiff, error) {
	liveByName := make(map[string]LiveColumn, len(live))
	for _, col := range live {
		if col.Name == "id" {
			continue
		}
		liveByName[col.Name] = col
	}

	diff := &ColumnDiff{}
	declared := make(map[string]bool)
	var addCandidates []FieldDefinition

	for _, f := range def.Columns() {
		col := f.ColumnName()
		if col == "id" {
			continue
		}
		declared[col] = true

		liveCol, exists := liveByName[col]
		if !exists {
			addCandidates = append(addCandidates, f)
			continue
		}
		match, err := dialect.ColumnMatches(liveCol, &f)
		if err != nil {
			return nil, fmt.Errorf("comparing column %q: %w", col, err)
		}
		if match {
			diff.Unchanged = append(diff.Unchanged, col)
		} else {
			diff.Modify = append(diff.Modify, f)
		}
	}

	removeCandidates := make(map[string]LiveColumn)
	for name, col := range liveByName {
		if !declared[name] {
			removeCandidates[name] = col
		}
	}

	// Stage one: explicit hints.
	var remaining []FieldDefinition
	for _, f := range addCandidates {
		prev := f.PreviousColumnName()
		if prev != "" {
			if _, ok := removeCandidates[prev]; ok {
				diff.Rename = append(diff.Rename, RenameColumn{From: prev, Field: f})
				delete(removeCandidates, prev)
				continue
			}
		}
		remaining = append(remaining, f)
	}

	// Stage two: heuristic matching. An added field pairs with a dropped
	// column only when the dropped column already satisfies the field's type
	// and constraints, and the pairing is unambiguous.
	for _, f := range remaining {
		var matched []string
		for name, col := range removeCandidates {
			ok, err := dialect.ColumnMatches(col, &f)
			if err != nil {
				return nil, fmt.Errorf("comparing column %q: %w", name, err)
			}
			if ok {
				matched = append(matched, name)
			}
		}
		if len(matched) == 1 {
			diff.Rename = append(diff.Rename, RenameColumn{From: matched[0], Field: f})
			delete(removeCandidates, matched[0])
		} else {
			diff.Add = append(diff.Add, f)
		}
	}

	for name := range removeCandidates {
		diff.Remove = append(diff.Remove, name)
	}

	return diff, nil
}
