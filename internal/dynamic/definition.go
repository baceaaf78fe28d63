package dynamic

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FieldType enumerates the column-level types a dynamic model field can take,
// plus the three reference kinds that materialize as foreign keys or junction
// tables.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldText      FieldType = "text"
	FieldInteger   FieldType = "integer"
	FieldSmallInt  FieldType = "small_integer"
	FieldBigInt    FieldType = "big_integer"
	FieldDecimal   FieldType = "decimal"
	FieldFloat     FieldType = "float"
	FieldBoolean   FieldType = "boolean"
	FieldDate      FieldType = "date"
	FieldTime      FieldType = "time"
	FieldDateTime  FieldType = "datetime"
	FieldDuration  FieldType = "duration"
	FieldUUID      FieldType = "uuid"
	FieldJSON      FieldType = "json"
	FieldBinary    FieldType = "binary"
	FieldEmail     FieldType = "email"
	FieldURL       FieldType = "url"
	FieldSlug      FieldType = "slug"
	FieldFile      FieldType = "file"
	FieldImage     FieldType = "image"
	FieldIPAddress FieldType = "ip_address"

	FieldForeignKey FieldType = "foreign_key"
	FieldOneToOne   FieldType = "one_to_one"
	FieldManyToMany FieldType = "many_to_many"
)

var fieldTypes = map[FieldType]bool{
	FieldString: true, FieldText: true, FieldInteger: true, FieldSmallInt: true,
	FieldBigInt: true, FieldDecimal: true, FieldFloat: true, FieldBoolean: true,
	FieldDate: true, FieldTime: true, FieldDateTime: true, FieldDuration: true,
	FieldUUID: true, FieldJSON: true, FieldBinary: true, FieldEmail: true,
	FieldURL: true, FieldSlug: true, FieldFile: true, FieldImage: true,
	FieldIPAddress: true, FieldForeignKey: true, FieldOneToOne: true,
	FieldManyToMany: true,
}

var deletePolicies = map[string]bool{
	"cascade": true, "set_null": true, "protect": true, "restrict": true, "do_nothing": true,
}

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// FieldDefinition describes one field of a dynamic model. MaxDigits and
// DecimalPlaces are pointers so that "not set" and "zero" stay
// distinguishable during validation.
type FieldDefinition struct {
	Name          string            `json:"name"`
	Type          FieldType         `json:"type"`
	Null          bool              `json:"null"`
	Blank         bool              `json:"blank"`
	Unique        bool              `json:"unique"`
	MaxLength     int               `json:"max_length,omitempty"`
	MaxDigits     *int              `json:"max_digits,omitempty"`
	DecimalPlaces *int              `json:"decimal_places,omitempty"`
	Default       *string           `json:"default,omitempty"`
	AutoNowAdd    bool              `json:"auto_now_add,omitempty"`
	AutoNow       bool              `json:"auto_now,omitempty"`
	RelatedModel  string            `json:"related_model,omitempty"`
	RelatedTable  string            `json:"related_table,omitempty"`
	OnDelete      string            `json:"on_delete,omitempty"`
	LimitedTo     map[string]string `json:"limited_to,omitempty"`

	// PreviousName is the explicit rename hint. When set, the column diff
	// treats old column PreviousName as renamed to this field regardless of
	// type similarity.
	PreviousName string `json:"previous_name,omitempty"`
}

// IsReference reports whether the field is one of the reference kinds.
func (f *FieldDefinition) IsReference() bool {
	return f.Type == FieldForeignKey || f.Type == FieldOneToOne || f.Type == FieldManyToMany
}

// ColumnName returns the physical column backing this field. Single-valued
// references store the key under "<name>_id"; many-to-many fields have no
// column of their own.
func (f *FieldDefinition) ColumnName() string {
	if f.Type == FieldForeignKey || f.Type == FieldOneToOne {
		if strings.HasSuffix(f.Name, "_id") {
			return f.Name
		}
		return f.Name + "_id"
	}
	return f.Name
}

// PreviousColumnName applies the same suffix rule to the rename hint.
func (f *FieldDefinition) PreviousColumnName() string {
	if f.PreviousName == "" {
		return ""
	}
	if f.Type == FieldForeignKey || f.Type == FieldOneToOne {
		if strings.HasSuffix(f.PreviousName, "_id") {
			return f.PreviousName
		}
		return f.PreviousName + "_id"
	}
	return f.PreviousName
}

// Validate checks internal consistency of a single field definition.
func (f *FieldDefinition) Validate() error {
	if !identifierRe.MatchString(f.Name) {
		return fmt.Errorf("field name %q is not a valid identifier", f.Name)
	}
	if !fieldTypes[f.Type] {
		return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
	}

	if f.Type == FieldDecimal && (f.MaxDigits == nil || f.DecimalPlaces == nil) {
		return fmt.Errorf("decimal field %q requires both max_digits and decimal_places", f.Name)
	}

	if f.Type == FieldForeignKey || f.Type == FieldOneToOne {
		if f.RelatedModel == "" {
			return fmt.Errorf("reference field %q requires a related model", f.Name)
		}
		if f.OnDelete != "" && !deletePolicies[f.OnDelete] {
			return fmt.Errorf("reference field %q has invalid deletion policy %q", f.Name, f.OnDelete)
		}
	}
	if f.Type == FieldManyToMany && f.RelatedModel == "" {
		return fmt.Errorf("reference field %q requires a related model", f.Name)
	}

	if (f.AutoNowAdd || f.AutoNow) && f.Type != FieldDateTime && f.Type != FieldDate {
		return fmt.Errorf("field %q: auto timestamps are only valid on date and datetime fields", f.Name)
	}

	return nil
}

// ModelDefinition is the declared shape of one dynamic model: the input to
// table synchronization and the unit cached by the registry.
type ModelDefinition struct {
	AppName string            `json:"app_name"`
	Name    string            `json:"name"`
	Fields  []FieldDefinition `json:"fields"`
}

// QualifiedName returns the registry key, "app.Model".
func (m *ModelDefinition) QualifiedName() string {
	if m.AppName == "" {
		return m.Name
	}
	return m.AppName + "." + m.Name
}

// TableName returns the physical table backing the model.
func (m *ModelDefinition) TableName() string {
	name := strings.ToLower(m.Name)
	if m.AppName == "" {
		return name
	}
	return strings.ToLower(m.AppName) + "_" + name
}

// Columns returns the fields that materialize as columns on the model's own
// table. Many-to-many fields live in junction tables and are excluded.
func (m *ModelDefinition) Columns() []FieldDefinition {
	var cols []FieldDefinition
	for _, f := range m.Fields {
		if f.Type == FieldManyToMany {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}

// JunctionFields returns the many-to-many fields of the model.
func (m *ModelDefinition) JunctionFields() []FieldDefinition {
	var out []FieldDefinition
	for _, f := range m.Fields {
		if f.Type == FieldManyToMany {
			out = append(out, f)
		}
	}
	return out
}

// JunctionTableName returns the physical junction table for a many-to-many
// field.
func (m *ModelDefinition) JunctionTableName(f *FieldDefinition) string {
	return m.TableName() + "_" + strings.ToLower(f.Name)
}

// Validate checks the whole definition: model name, every field, and
// duplicate column detection.
func (m *ModelDefinition) Validate() error {
	if m.Name == "" {
		return errors.New("model name is required")
	}
	if len(m.Fields) == 0 {
		return fmt.Errorf("model %q has no fields", m.Name)
	}

	seen := make(map[string]bool, len(m.Fields))
	for i := range m.Fields {
		f := &m.Fields[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
		col := f.ColumnName()
		if seen[col] {
			return fmt.Errorf("model %q: duplicate column %q", m.Name, col)
		}
		seen[col] = true
	}
	return nil
}
