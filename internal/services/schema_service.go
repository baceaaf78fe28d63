package services

import (
	"context"
	"fmt"
	"strings"

	"schemakit/internal/models"
	"schemakit/internal/repositories"
	"schemakit/internal/utils"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2
)

// SchemaService introspects the materialized dynamic tables and renders them
// as a Mermaid ER diagram.
type SchemaService struct {
	schemaRepo *repositories.SchemaRepository
}

func NewSchemaService(schemaRepo *repositories.SchemaRepository) *SchemaService {
	return &SchemaService{schemaRepo: schemaRepo}
}

// LiveTables returns the introspected shape of the tables generated for an
// application. An empty appName returns every base table in the schema.
func (s *SchemaService) LiveTables(ctx context.Context, schema, appName string) ([]models.Table, error) {
	if schema == "" {
		schema = "public"
	}
	prefix := ""
	if appName != "" {
		prefix = strings.ToLower(appName) + "_"
	}
	return s.collectTables(ctx, schema, prefix)
}

// VisualizeSchema generates a Mermaid ER diagram for an application's
// generated tables.
func (s *SchemaService) VisualizeSchema(ctx context.Context, schema, appName string) (string, error) {
	tables, err := s.LiveTables(ctx, schema, appName)
	if err != nil {
		return "", err
	}
	if schema == "" {
		schema = "public"
	}

	relationships, err := s.buildRelationships(ctx, schema, tables)
	if err != nil {
		return "", fmt.Errorf("failed to build relationships: %w", err)
	}

	return renderMermaid(tables, relationships), nil
}

func (s *SchemaService) collectTables(ctx context.Context, schema, prefix string) ([]models.Table, error) {
	tableNames, err := s.schemaRepo.GetTables(ctx, schema, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]models.Table, 0, len(tableNames))
	for _, tableName := range tableNames {
		table := models.Table{Name: tableName}

		columns, err := s.schemaRepo.GetColumns(ctx, schema, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for %s: %w", tableName, err)
		}
		table.Columns = columns

		pks, err := s.schemaRepo.GetPrimaryKeys(ctx, schema, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get primary keys for %s: %w", tableName, err)
		}
		table.PrimaryKeys = pks

		fks, err := s.schemaRepo.GetForeignKeys(ctx, schema, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get foreign keys for %s: %w", tableName, err)
		}
		table.ForeignKeys = fks

		tables = append(tables, table)
	}

	return tables, nil
}

// buildRelationships derives diagram edges from the live foreign keys.
// Junction tables collapse into many-to-many edges between the tables they
// join; unique single-column references render one-to-one.
func (s *SchemaService) buildRelationships(ctx context.Context, schema string, tables []models.Table) ([]models.Relationship, error) {
	junctionTables := detectJunctionTables(tables)

	var tableColumns []repositories.TableColumn
	for _, table := range tables {
		if junctionTables[table.Name] {
			continue
		}
		for _, fk := range table.ForeignKeys {
			tableColumns = append(tableColumns, repositories.TableColumn{
				Table:  table.Name,
				Column: fk.FromColumn,
			})
		}
	}

	uniqueMap, err := s.schemaRepo.GetUniqueConstraintsBatch(ctx, schema, tableColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to get unique constraints: %w", err)
	}

	var relationships []models.Relationship
	for _, table := range tables {
		if junctionTables[table.Name] {
			for i := 0; i < len(table.ForeignKeys); i++ {
				for j := i + 1; j < len(table.ForeignKeys); j++ {
					relationships = append(relationships, models.Relationship{
						FromTable: table.ForeignKeys[i].ToTable,
						ToTable:   table.ForeignKeys[j].ToTable,
						Type:      "}o--o{",
					})
				}
			}
			continue
		}

		for _, fk := range table.ForeignKeys {
			relType := "||--o{"
			if uniqueMap[fmt.Sprintf("%s:%s", table.Name, fk.FromColumn)] {
				relType = "||--||"
			}
			relationships = append(relationships, models.Relationship{
				FromTable: table.Name,
				ToTable:   fk.ToTable,
				Type:      relType,
			})
		}
	}

	return relationships, nil
}

// detectJunctionTables flags tables whose foreign keys all sit inside the
// primary key, the shape the synchronizer generates for many-to-many fields.
func detectJunctionTables(tables []models.Table) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, table := range tables {
		if len(table.ForeignKeys) < minJunctionTableFKs ||
			len(table.PrimaryKeys) < minJunctionTableFKs ||
			len(table.Columns) > maxJunctionTableColumns {
			continue
		}

		allFKsInPK := true
		for _, fk := range table.ForeignKeys {
			if !utils.Contains(table.PrimaryKeys, fk.FromColumn) {
				allFKsInPK = false
				break
			}
		}
		if allFKsInPK {
			junctionTables[table.Name] = true
		}
	}
	return junctionTables
}

func renderMermaid(tables []models.Table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.Type, rel.ToTable)
			if seen[key] {
				continue
			}
			seen[key] = true

			// Mermaid requires a label; an empty one hides it.
			sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n",
				strings.ToUpper(rel.FromTable),
				rel.Type,
				strings.ToUpper(rel.ToTable)))
		}
		sb.WriteString("\n")
	}

	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", strings.ToUpper(table.Name)))

		for _, col := range table.Columns {
			annotations := ""
			if utils.Contains(table.PrimaryKeys, col.Name) {
				annotations = " PK"
			}
			if isForeignKey(table.ForeignKeys, col.Name) {
				annotations += " FK"
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				simplifyDataType(col.DataType),
				col.Name,
				annotations))
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

func simplifyDataType(dataType string) string {
	dt := strings.ToLower(dataType)

	switch {
	case dt == "integer":
		return "int"
	case dt == "bigint":
		return "bigint"
	case dt == "smallint":
		return "smallint"
	case strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "character"):
		return "char"
	case dt == "text":
		return "text"
	case strings.HasPrefix(dt, "timestamp without time zone"):
		return "timestamp"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case dt == "date":
		return "date"
	case dt == "boolean":
		return "boolean"
	case strings.HasPrefix(dt, "numeric"):
		return "numeric"
	case strings.HasPrefix(dt, "decimal"):
		return "decimal"
	case dt == "real":
		return "real"
	case dt == "double precision":
		return "double"
	case dt == "json":
		return "json"
	case dt == "jsonb":
		return "jsonb"
	case dt == "uuid":
		return "uuid"
	case dt == "bytea":
		return "bytea"
	default:
		return dataType
	}
}

func isForeignKey(fks []models.ForeignKey, colName string) bool {
	for _, fk := range fks {
		if fk.FromColumn == colName {
			return true
		}
	}
	return false
}
