package models

// Introspection shapes for the live-schema endpoints. These mirror what the
// catalog reports for the materialized tables, not what the definitions
// declare.

type Column struct {
	Name     string
	DataType string
	Nullable bool
}

type ForeignKey struct {
	ConstraintName string
	FromColumn     string
	ToTable        string
	ToColumn       string
}

type Table struct {
	Name        string
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
}

// Relationship is one edge of the generated ER diagram; Type holds the
// Mermaid cardinality marker ("||--o{", "||--||", "}o--o{").
type Relationship struct {
	FromTable string
	ToTable   string
	Type      string
}
