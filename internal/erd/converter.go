package erd

import (
	"fmt"
	"strings"
)

// Table name prefixes owned by the platform itself. User ERDs occasionally
// include dumps of these; they are never converted.
var internalTablePrefixes = []string{
	"platform_", "auth_", "admin_", "session_", "contenttype_", "migration_",
}

// Converter transforms an ERD graph into a set of model descriptors. It is
// stateless between Convert calls and safe to run concurrently across
// distinct instances; a single instance must not be shared.
//
// The converter never fails on malformed input: unresolvable references are
// skipped and reported through Warnings. Hard failure is the business of the
// separate Validate step.
type Converter struct {
	warnings         []string
	tables           map[string]*tableInfo
	fields           map[string]*fieldInfo
	lookupCategories map[string]string
}

type tableInfo struct {
	originalName string
	modelName    string
	fullName     string
	external     bool
	table        *Table
}

type fieldInfo struct {
	tableID       string
	originalName  string
	sanitizedName string
	field         *Field
}

func NewConverter() *Converter {
	return &Converter{}
}

// Warnings returns the accumulated warning list of the last Convert run.
func (c *Converter) Warnings() []string {
	return c.warnings
}

func (c *Converter) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Convert runs the full multi-pass conversion: id mapping, skip decisions,
// model generation, relationship resolution, and the final optimization pass.
func (c *Converter) Convert(g *Graph) []ModelDescriptor {
	c.warnings = nil
	c.tables = make(map[string]*tableInfo)
	c.fields = make(map[string]*fieldInfo)
	c.lookupCategories = make(map[string]string)

	c.buildMappings(g)

	models := make([]ModelDescriptor, 0, len(g.Tables))
	indexByTable := make(map[string]int)
	for i := range g.Tables {
		table := &g.Tables[i]
		if c.shouldSkipTable(table) {
			continue
		}
		model := c.convertTable(table, g)
		if model == nil {
			continue
		}
		models = append(models, *model)
		indexByTable[table.ID] = len(models) - 1
	}

	// Pointers into models are only taken once the slice stops growing;
	// taking them inside the append loop would leave stale copies behind on
	// reallocation.
	modelsByTable := make(map[string]*ModelDescriptor, len(indexByTable))
	for id, idx := range indexByTable {
		modelsByTable[id] = &models[idx]
	}

	c.processRelationships(modelsByTable, g.Relationships)
	c.optimizeModels(models)
	return models
}

// buildMappings indexes every table and field by id. All later passes resolve
// by id, so this must run first.
func (c *Converter) buildMappings(g *Graph) {
	for i := range g.Tables {
		table := &g.Tables[i]
		external := strings.Contains(table.Name, ".")

		var modelName, fullName string
		if external {
			namespace, local, _ := strings.Cut(table.Name, ".")
			modelName, _ = SanitizeModelName(local)
			fullName = namespace + "." + modelName
		} else {
			var warning string
			modelName, warning = SanitizeModelName(table.Name)
			if warning != "" {
				c.warnings = append(c.warnings, warning)
			}
			fullName = modelName
		}

		c.tables[table.ID] = &tableInfo{
			originalName: table.Name,
			modelName:    modelName,
			fullName:     fullName,
			external:     external,
			table:        table,
		}

		for j := range table.Fields {
			field := &table.Fields[j]
			sanitized, warning := SanitizeFieldName(field.Name)
			if warning != "" {
				c.warnings = append(c.warnings, warning)
			}
			c.fields[field.ID] = &fieldInfo{
				tableID:       table.ID,
				originalName:  field.Name,
				sanitizedName: sanitized,
				field:         field,
			}
		}
	}
}

func (c *Converter) shouldSkipTable(table *Table) bool {
	name := strings.ToLower(table.Name)

	for _, prefix := range internalTablePrefixes {
		if strings.HasPrefix(name, prefix) {
			c.warnf("skipping platform-internal table: %s", table.Name)
			return true
		}
	}

	// External tables exist only as relationship targets.
	if strings.Contains(table.Name, ".") {
		return true
	}

	// Views are converted to unmanaged models, never skipped.
	return false
}

func (c *Converter) convertTable(table *Table, g *Graph) *ModelDescriptor {
	info := c.tables[table.ID]
	if info == nil {
		return nil
	}

	model := &ModelDescriptor{Name: info.modelName}

	if table.IsView || table.IsMaterializedView {
		model.Meta.Unmanaged = true
		viewKind := "view"
		if table.IsMaterializedView {
			viewKind = "materialized view"
		}
		c.warnf("table %q is a %s - converting to unmanaged model", table.Name, viewKind)
	}

	if table.Name != "" && table.Name != info.modelName {
		model.Meta.DBTable = table.Name
	}

	// Fields consumed by a relationship edge become reference fields later;
	// record lookup categories for them now because the edge loses the
	// original column name.
	consumed := make(map[string]bool)
	for _, rel := range g.Relationships {
		if rel.SourceFieldID != "" {
			consumed[rel.SourceFieldID] = true
		}
		if rel.TargetFieldID != "" {
			consumed[rel.TargetFieldID] = true
		}
	}

	for i := range table.Fields {
		field := &table.Fields[i]
		if consumed[field.ID] {
			if IsLookupField(field.Name) {
				c.lookupCategories[field.ID] = DeriveLookupCategory(field.Name, table.Name)
			}
			continue
		}
		if fd := c.convertField(field); fd != nil {
			model.Fields = append(model.Fields, *fd)
		}
	}

	if indexes := c.convertIndexes(table.Indexes, model); len(indexes) > 0 {
		model.Meta.Indexes = indexes
	}

	if table.Comment != "" {
		model.Meta.VerboseName = table.Comment
		model.Meta.VerboseNamePlural = table.Comment + "s"
	}

	return model
}

func (c *Converter) convertField(field *Field) *FieldDescriptor {
	info := c.fields[field.ID]
	if info == nil {
		return nil
	}

	raw := strings.ToLower(field.Type.Name)

	// The implicit auto primary key is synthesized by the runtime; an ERD
	// "id" integer primary key column maps onto it rather than duplicating.
	if info.sanitizedName == "id" && field.PrimaryKey && isAutoKeyType(raw) {
		return nil
	}

	kind, warning := ResolveType(info.sanitizedName, field.Type.Name)
	if warning != "" {
		c.warnings = append(c.warnings, warning)
	}

	options, warnings := BuildOptions(field, kind)
	c.warnings = append(c.warnings, warnings...)

	return &FieldDescriptor{
		Name:    info.sanitizedName,
		Type:    kind,
		Options: options,
	}
}

func isAutoKeyType(raw string) bool {
	base := strings.TrimSpace(typeParenStrip.ReplaceAllString(raw, ""))
	switch base {
	case "int", "integer", "bigint", "serial", "bigserial", "smallserial":
		return true
	}
	return false
}

// convertIndexes resolves index field ids to sanitized field names. Indexes
// referencing unresolvable fields are dropped silently rather than failing
// the model.
func (c *Converter) convertIndexes(indexes []Index, model *ModelDescriptor) []IndexDescriptor {
	fieldNames := model.fieldNames()

	var out []IndexDescriptor
	for _, idx := range indexes {
		upper := strings.ToUpper(idx.Name)
		if upper == "PRIMARY" || upper == "PRIMARY KEY" {
			continue
		}
		var fields []string
		for _, id := range idx.FieldIDs {
			info := c.fields[id]
			if info != nil && fieldNames[info.sanitizedName] {
				fields = append(fields, info.sanitizedName)
			}
		}
		if len(fields) == 0 {
			continue
		}
		out = append(out, IndexDescriptor{
			Name:   sanitizeIndexName(idx.Name),
			Fields: fields,
			Unique: idx.Unique,
		})
	}
	return out
}

func (c *Converter) processRelationships(modelsByTable map[string]*ModelDescriptor, relationships []Relationship) {
	processed := make(map[string]bool)
	for i := range relationships {
		rel := &relationships[i]
		key := rel.SourceTableID + "|" + rel.TargetTableID + "|" + rel.ID
		if processed[key] {
			continue
		}
		processed[key] = true
		c.processRelationship(rel, modelsByTable)
	}
}

func (c *Converter) processRelationship(rel *Relationship, modelsByTable map[string]*ModelDescriptor) {
	sourceInfo := c.tables[rel.SourceTableID]
	if sourceInfo == nil {
		c.warnf("skipping relationship %q - source table not found", rel.Name)
		return
	}
	targetInfo := c.tables[rel.TargetTableID]
	if targetInfo == nil {
		c.warnf("relationship %q references missing table (id %s) - skipping", rel.Name, rel.TargetTableID)
		return
	}

	kind, owning, warning := ResolveCardinality(rel.SourceCardinality, rel.TargetCardinality)
	if warning != "" {
		c.warnings = append(c.warnings, warning)
	}

	var owner *ModelDescriptor
	var ownerInfo, relatedInfo *tableInfo
	var fieldID string
	if owning == OwnSource {
		owner = modelsByTable[rel.SourceTableID]
		ownerInfo, relatedInfo = sourceInfo, targetInfo
		fieldID = rel.SourceFieldID
	} else {
		owner = modelsByTable[rel.TargetTableID]
		ownerInfo, relatedInfo = targetInfo, sourceInfo
		fieldID = rel.TargetFieldID
	}

	if owner == nil {
		// The owning side is external or was skipped; there is no local
		// model to attach the reference field to.
		c.warnf("relationship %q has no local owning model (%s) - skipping", rel.Name, ownerInfo.fullName)
		return
	}

	fieldName := c.referenceFieldName(fieldID, rel, relatedInfo)

	options := RelationOptions{}
	if kind == RelSingleReference || kind == RelSingleUniqueReference {
		policy, err := ResolveOnDelete(rel.OnDelete)
		if err != nil {
			c.warnf("relationship %q: %v - defaulting to cascade", rel.Name, err)
			policy = DeleteCascade
		}
		options.OnDelete = policy
		if policy == DeleteSetNull {
			options.Null = true
			options.Blank = true
		}
	}

	if relatedInfo.fullName == LookupModelRef {
		category := c.lookupCategories[fieldID]
		if category == "" {
			category = DeriveLookupCategory(fieldName, owner.Name)
			c.warnf("derived lookup category %q for field %q", category, fieldName)
		} else {
			c.warnf("attached lookup category %q to field %q", category, fieldName)
		}
		options.LimitChoicesTo = map[string]string{LookupFilterKey: category}
	} else if len(rel.LimitedTo) > 0 {
		options.LimitChoicesTo = NormalizeLookupFilter(rel.LimitedTo)
	}

	options.RelatedName = strings.ToLower(owner.Name) + "_" + fieldName + "_set"

	// A relationship claims its column: the plain field of the same name
	// must not survive alongside it.
	owner.removeField(fieldName)

	owner.Relationships = append(owner.Relationships, RelationshipDescriptor{
		Name:         fieldName,
		Kind:         kind,
		RelatedModel: relatedInfo.fullName,
		Options:      options,
	})
}

func (c *Converter) referenceFieldName(fieldID string, rel *Relationship, relatedInfo *tableInfo) string {
	if info := c.fields[fieldID]; info != nil {
		return info.sanitizedName
	}
	if rel.Name != "" {
		name, _ := SanitizeFieldName(rel.Name)
		return name
	}
	return strings.ToLower(relatedInfo.modelName) + "_id"
}

// optimizeModels is the final fix-up pass: model name deduplication,
// relationship deduplication, minimum-field guarantee, and timestamp fields.
func (c *Converter) optimizeModels(models []ModelDescriptor) {
	seenNames := make(map[string]bool)

	for i := range models {
		model := &models[i]

		if seenNames[model.Name] {
			base := model.Name
			counter := 2
			name := fmt.Sprintf("%s%d", base, counter)
			for seenNames[name] {
				counter++
				name = fmt.Sprintf("%s%d", base, counter)
			}
			c.warnf("renamed duplicate model %q to %q", base, name)
			model.Name = name
		}
		seenNames[model.Name] = true

		seenRels := make(map[string]bool)
		kept := model.Relationships[:0]
		for _, rel := range model.Relationships {
			key := rel.Name + "|" + string(rel.Kind) + "|" + rel.RelatedModel
			if seenRels[key] {
				continue
			}
			seenRels[key] = true
			kept = append(kept, rel)
		}
		model.Relationships = kept

		if len(model.Fields) == 0 && len(model.Relationships) == 0 {
			model.Fields = append(model.Fields, FieldDescriptor{
				Name:    "name",
				Type:    TypeString,
				Options: FieldOptions{MaxLength: 255},
			})
			c.warnf("added default name field to model %q (no fields found)", model.Name)
		}

		hasCreated := model.hasField("created_at") || model.hasField("created") || model.hasField("date_created")
		hasUpdated := model.hasField("updated_at") || model.hasField("updated") || model.hasField("modified")

		if !hasCreated {
			model.Fields = append(model.Fields, FieldDescriptor{
				Name:    "created_at",
				Type:    TypeDateTime,
				Options: FieldOptions{AutoNowAdd: true},
			})
		}
		if !hasUpdated {
			model.Fields = append(model.Fields, FieldDescriptor{
				Name:    "updated_at",
				Type:    TypeDateTime,
				Options: FieldOptions{AutoNow: true},
			})
		}
	}
}

// ConvertGraph is the package entry point: converts, optionally qualifies
// internal relationship targets with appName, and validates. The result is
// always usable; IsValid and Errors communicate semantic problems without
// an error return.
func ConvertGraph(g *Graph, appName string) *ConversionResult {
	converter := NewConverter()
	models := converter.Convert(g)

	if appName != "" {
		local := make(map[string]bool, len(models))
		for _, m := range models {
			local[m.Name] = true
		}
		for i := range models {
			for j := range models[i].Relationships {
				rel := &models[i].Relationships[j]
				if !strings.Contains(rel.RelatedModel, ".") && local[rel.RelatedModel] {
					rel.RelatedModel = appName + "." + rel.RelatedModel
				}
			}
		}
	}

	valid, errs := Validate(models)

	fieldCount, relCount := 0, 0
	for _, m := range models {
		fieldCount += len(m.Fields)
		relCount += len(m.Relationships)
	}

	warnings := converter.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	if errs == nil {
		errs = []string{}
	}

	return &ConversionResult{
		Models:            models,
		Warnings:          warnings,
		Errors:            errs,
		IsValid:           valid,
		ModelCount:        len(models),
		FieldCount:        fieldCount,
		RelationshipCount: relCount,
	}
}
