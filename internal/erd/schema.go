package erd

// ModelDescriptor is the converter's normalized, ORM-agnostic representation
// of one generated data model.
type ModelDescriptor struct {
	Name          string                   `json:"name"`
	Fields        []FieldDescriptor        `json:"fields"`
	Relationships []RelationshipDescriptor `json:"relationships"`
	Meta          ModelMeta                `json:"meta,omitzero"`
}

type ModelMeta struct {
	DBTable           string            `json:"db_table,omitempty"`
	Unmanaged         bool              `json:"unmanaged,omitempty"`
	Indexes           []IndexDescriptor `json:"indexes,omitempty"`
	VerboseName       string            `json:"verbose_name,omitempty"`
	VerboseNamePlural string            `json:"verbose_name_plural,omitempty"`
}

func (m ModelMeta) IsZero() bool {
	return m.DBTable == "" && !m.Unmanaged && len(m.Indexes) == 0 &&
		m.VerboseName == "" && m.VerboseNamePlural == ""
}

type FieldDescriptor struct {
	Name    string       `json:"name"`
	Type    FieldType    `json:"type"`
	Options FieldOptions `json:"options"`
}

type RelationshipDescriptor struct {
	Name         string          `json:"name"`
	Kind         RelationKind    `json:"kind"`
	RelatedModel string          `json:"related_model"`
	Options      RelationOptions `json:"options"`
}

type IndexDescriptor struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Unique bool     `json:"unique"`
}

// ConversionResult is the self-describing output of a full conversion run.
// Downstream persistence consumes Models; UI and CLI layers surface Warnings
// and Errors.
type ConversionResult struct {
	Models            []ModelDescriptor `json:"models"`
	Warnings          []string          `json:"warnings"`
	Errors            []string          `json:"errors"`
	IsValid           bool              `json:"is_valid"`
	ModelCount        int               `json:"model_count"`
	FieldCount        int               `json:"field_count"`
	RelationshipCount int               `json:"relationship_count"`
}

func (m *ModelDescriptor) fieldNames() map[string]bool {
	names := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		names[f.Name] = true
	}
	return names
}

func (m *ModelDescriptor) hasField(name string) bool {
	for _, f := range m.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// removeField drops a plain field by name, used when a relationship claims
// the column.
func (m *ModelDescriptor) removeField(name string) {
	kept := m.Fields[:0]
	for _, f := range m.Fields {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	m.Fields = kept
}
