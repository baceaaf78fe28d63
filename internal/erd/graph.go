package erd

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Graph is the wire shape produced by external ERD tooling. Field and
// relationship references are by id; anything unresolvable is skipped with a
// warning during conversion rather than rejected up front.
type Graph struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
}

type Table struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Fields             []Field `json:"fields"`
	Indexes            []Index `json:"indexes"`
	IsView             bool    `json:"isView"`
	IsMaterializedView bool    `json:"isMaterializedView"`
	Comment            string  `json:"comment"`
}

type Field struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       TypeRef         `json:"type"`
	Nullable   *bool           `json:"nullable"`
	Unique     bool            `json:"unique"`
	PrimaryKey bool            `json:"primaryKey"`
	MaxLength  int             `json:"maxLength"`
	Precision  int             `json:"precision"`
	Scale      int             `json:"scale"`
	Default    *string         `json:"default"`
	Choices    json.RawMessage `json:"choices"`
	Collation  string          `json:"collation"`
}

// IsNullable defaults to true when the source tool omitted the flag, matching
// how most ERD exporters treat unannotated columns.
func (f *Field) IsNullable() bool {
	if f.Nullable == nil {
		return true
	}
	return *f.Nullable
}

type Relationship struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	SourceTableID     string            `json:"sourceTableId"`
	TargetTableID     string            `json:"targetTableId"`
	SourceFieldID     string            `json:"sourceFieldId"`
	TargetFieldID     string            `json:"targetFieldId"`
	SourceCardinality string            `json:"sourceCardinality"`
	TargetCardinality string            `json:"targetCardinality"`
	OnDelete          string            `json:"onDelete"`
	LimitedTo         map[string]string `json:"limitedTo"`
}

type Index struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FieldIDs []string `json:"fieldIds"`
	Unique   bool     `json:"unique"`
}

// TypeRef carries the raw database type descriptor. ERD exporters emit either
// a bare string ("varchar(255)") or an object ({"name": "varchar(255)"}); both
// decode to the same thing.
type TypeRef struct {
	Name string
}

func (t *TypeRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid type descriptor: %w", err)
	}
	if obj.Name != "" {
		t.Name = obj.Name
	} else {
		t.Name = obj.ID
	}
	return nil
}

func (t TypeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Name)
}

func (t TypeRef) String() string { return t.Name }

// ParseGraph decodes an ERD JSON document.
func ParseGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse ERD JSON: %w", err)
	}
	return &g, nil
}

// parseChoices accepts the two formats ERD tools emit for enumerated values:
// a JSON list of [key, label] pairs, or a "key:label,key:label" string.
func parseChoices(raw json.RawMessage) ([]Choice, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err == nil {
		var choices []Choice
		for _, p := range pairs {
			switch len(p) {
			case 0:
				continue
			case 1:
				choices = append(choices, Choice{Key: p[0], Label: p[0]})
			default:
				choices = append(choices, Choice{Key: p[0], Label: p[1]})
			}
		}
		return choices, len(choices) > 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var choices []Choice
		for _, item := range strings.Split(s, ",") {
			key, label, found := strings.Cut(item, ":")
			if !found {
				continue
			}
			choices = append(choices, Choice{
				Key:   strings.TrimSpace(key),
				Label: strings.TrimSpace(label),
			})
		}
		return choices, len(choices) > 0
	}

	return nil, false
}
