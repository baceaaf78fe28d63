package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"schemakit/internal/dynamic"
	"schemakit/internal/erd"
	"schemakit/internal/models"
	"schemakit/internal/repositories"
)

// DynamicService turns stored model definitions into live tables. It is the
// trigger layer: definition create/update flows call into Apply*, deletes
// call Drop, and the registry keeps materialized definitions cached between
// requests.
type DynamicService struct {
	definitions  *repositories.DefinitionRepository
	registry     *dynamic.Registry
	synchronizer *dynamic.Synchronizer
}

func NewDynamicService(definitions *repositories.DefinitionRepository,
	registry *dynamic.Registry, synchronizer *dynamic.Synchronizer) *DynamicService {
	return &DynamicService{
		definitions:  definitions,
		registry:     registry,
		synchronizer: synchronizer,
	}
}

func (s *DynamicService) ListModels(ctx context.Context, appName string) ([]models.ModelRecord, error) {
	app, err := s.definitions.GetApplicationByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %q not found", appName)
	}
	return s.definitions.ListModels(ctx, app.ID)
}

// GetModel returns the cached materialized definition, building it from the
// stored records on first access.
func (s *DynamicService) GetModel(ctx context.Context, appName, modelName string) (*dynamic.ModelHandle, error) {
	app, rec, err := s.findModel(ctx, appName, modelName)
	if err != nil {
		return nil, err
	}
	qualified := appName + "." + modelName
	return s.registry.GetOrBuild(qualified, func() (*dynamic.ModelDefinition, error) {
		return s.buildDefinition(ctx, app, rec)
	})
}

// ApplyModel synchronizes one model's table with its stored definition. On
// success the consumed rename hints are cleared and the cache entry evicted
// so the next read sees the applied shape.
func (s *DynamicService) ApplyModel(ctx context.Context, appName, modelName string) error {
	app, rec, err := s.findModel(ctx, appName, modelName)
	if err != nil {
		return err
	}
	def, err := s.buildDefinition(ctx, app, rec)
	if err != nil {
		return err
	}
	if err := s.synchronizer.Synchronize(ctx, def); err != nil {
		return err
	}
	if err := s.definitions.ClearRenameHints(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to clear rename hints for %s.%s: %w", appName, modelName, err)
	}
	s.registry.Evict(def.QualifiedName())
	log.Printf("synchronized table %q for model %s", def.TableName(), def.QualifiedName())
	return nil
}

// ApplyApplication synchronizes every model of an application. Models are
// ordered so that reference targets are created before the tables that
// reference them; mutually-referencing models fall back to definition order.
func (s *DynamicService) ApplyApplication(ctx context.Context, appName string) error {
	app, err := s.definitions.GetApplicationByName(ctx, appName)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("application %q not found", appName)
	}
	records, err := s.definitions.ListModels(ctx, app.ID)
	if err != nil {
		return err
	}

	defs := make([]*dynamic.ModelDefinition, 0, len(records))
	for i := range records {
		def, err := s.buildDefinition(ctx, app, &records[i])
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	for _, def := range orderByReferences(defs) {
		if err := s.synchronizer.Synchronize(ctx, def); err != nil {
			return fmt.Errorf("failed to apply %s: %w", def.QualifiedName(), err)
		}
		s.registry.Evict(def.QualifiedName())
	}
	for i := range records {
		if err := s.definitions.ClearRenameHints(ctx, records[i].ID); err != nil {
			return err
		}
	}
	log.Printf("synchronized %d models for application %q", len(defs), appName)
	return nil
}

// DropModel removes the model's table, its junction tables, and the stored
// definition.
func (s *DynamicService) DropModel(ctx context.Context, appName, modelName string) error {
	app, rec, err := s.findModel(ctx, appName, modelName)
	if err != nil {
		return err
	}
	def, err := s.buildDefinition(ctx, app, rec)
	if err != nil {
		return err
	}
	if err := s.synchronizer.DropModel(ctx, def); err != nil {
		return err
	}
	if err := s.definitions.DeleteModel(ctx, rec.ID); err != nil {
		return err
	}
	s.registry.Evict(def.QualifiedName())
	log.Printf("dropped table %q and definition for model %s", def.TableName(), def.QualifiedName())
	return nil
}

// RenameField updates a stored field, recording the old name as the rename
// hint when the name changed. The hint survives until the next successful
// synchronization consumes it.
func (s *DynamicService) RenameField(ctx context.Context, appName, modelName, fieldName, newName string) error {
	_, rec, err := s.findModel(ctx, appName, modelName)
	if err != nil {
		return err
	}
	fields, err := s.definitions.ListFields(ctx, rec.ID)
	if err != nil {
		return err
	}
	for i := range fields {
		f := &fields[i]
		if f.Name != fieldName {
			continue
		}
		var hint *string
		if newName != f.Name {
			old := f.Name
			hint = &old
		}
		if err := s.definitions.UpdateField(ctx, f.ID, newName, f.FieldType, f.Options, hint); err != nil {
			return err
		}
		s.registry.Evict(appName + "." + modelName)
		return nil
	}
	return fmt.Errorf("field %q not found on model %s.%s", fieldName, appName, modelName)
}

func (s *DynamicService) findModel(ctx context.Context, appName, modelName string) (*models.Application, *models.ModelRecord, error) {
	app, err := s.definitions.GetApplicationByName(ctx, appName)
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, fmt.Errorf("application %q not found", appName)
	}
	rec, err := s.definitions.GetModelByName(ctx, app.ID, modelName)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("model %q not found in application %q", modelName, appName)
	}
	return app, rec, nil
}

// buildDefinition materializes one stored model into the declared shape the
// sync engine consumes, decoding the legacy option strings.
func (s *DynamicService) buildDefinition(ctx context.Context, app *models.Application, rec *models.ModelRecord) (*dynamic.ModelDefinition, error) {
	fieldRecords, err := s.definitions.ListFields(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	relRecords, err := s.definitions.ListRelationships(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	def := &dynamic.ModelDefinition{AppName: app.Name, Name: rec.Name}

	for i := range fieldRecords {
		fd, err := fieldFromRecord(&fieldRecords[i])
		if err != nil {
			return nil, fmt.Errorf("model %s.%s: %w", app.Name, rec.Name, err)
		}
		def.Fields = append(def.Fields, *fd)
	}
	for i := range relRecords {
		fd, err := fieldFromRelationship(&relRecords[i])
		if err != nil {
			return nil, fmt.Errorf("model %s.%s: %w", app.Name, rec.Name, err)
		}
		def.Fields = append(def.Fields, *fd)
	}
	return def, nil
}

func fieldFromRecord(rec *models.FieldRecord) (*dynamic.FieldDefinition, error) {
	opts, err := erd.ParseFieldOptions(rec.Options)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", rec.Name, err)
	}

	fd := &dynamic.FieldDefinition{
		Name:       rec.Name,
		Type:       dynamic.FieldType(rec.FieldType),
		Null:       opts.Null,
		Blank:      opts.Blank,
		Unique:     opts.Unique,
		MaxLength:  opts.MaxLength,
		AutoNowAdd: opts.AutoNowAdd,
		AutoNow:    opts.AutoNow,
	}
	if opts.MaxDigits > 0 {
		digits := opts.MaxDigits
		fd.MaxDigits = &digits
	}
	if opts.DecimalPlaces > 0 {
		places := opts.DecimalPlaces
		fd.DecimalPlaces = &places
	}
	if opts.HasDefault {
		value := opts.Default
		fd.Default = &value
	}
	if rec.PreviousName != nil {
		fd.PreviousName = *rec.PreviousName
	}
	return fd, nil
}

func fieldFromRelationship(rec *models.RelationshipRecord) (*dynamic.FieldDefinition, error) {
	opts, err := erd.ParseRelationOptions(rec.Options)
	if err != nil {
		return nil, fmt.Errorf("relationship %q: %w", rec.Name, err)
	}

	var kind dynamic.FieldType
	switch erd.RelationKind(rec.RelationType) {
	case erd.RelSingleReference:
		kind = dynamic.FieldForeignKey
	case erd.RelSingleUniqueReference:
		kind = dynamic.FieldOneToOne
	case erd.RelMultiReference:
		kind = dynamic.FieldManyToMany
	default:
		return nil, fmt.Errorf("relationship %q has unknown kind %q", rec.Name, rec.RelationType)
	}

	return &dynamic.FieldDefinition{
		Name:         rec.Name,
		Type:         kind,
		Null:         opts.Null,
		Blank:        opts.Blank,
		RelatedModel: rec.RelatedModel,
		RelatedTable: relatedTableName(rec.RelatedModel),
		OnDelete:     opts.OnDelete,
		LimitedTo:    opts.LimitChoicesTo,
	}, nil
}

// relatedTableName derives the physical table for a qualified model
// reference ("shop.Customer" -> "shop_customer").
func relatedTableName(qualified string) string {
	app, model, found := strings.Cut(qualified, ".")
	if !found {
		return strings.ToLower(qualified)
	}
	return strings.ToLower(app) + "_" + strings.ToLower(model)
}

// orderByReferences sorts definitions so reference targets come before their
// referrers. Cycles keep their original relative order.
func orderByReferences(defs []*dynamic.ModelDefinition) []*dynamic.ModelDefinition {
	byTable := make(map[string]*dynamic.ModelDefinition, len(defs))
	for _, def := range defs {
		byTable[def.TableName()] = def
	}

	ordered := make([]*dynamic.ModelDefinition, 0, len(defs))
	placed := make(map[string]bool, len(defs))
	visiting := make(map[string]bool, len(defs))

	var visit func(def *dynamic.ModelDefinition)
	visit = func(def *dynamic.ModelDefinition) {
		table := def.TableName()
		if placed[table] || visiting[table] {
			return
		}
		visiting[table] = true
		for i := range def.Fields {
			f := &def.Fields[i]
			if !f.IsReference() {
				continue
			}
			if target, ok := byTable[f.RelatedTable]; ok {
				visit(target)
			}
		}
		visiting[table] = false
		placed[table] = true
		ordered = append(ordered, def)
	}

	for _, def := range defs {
		visit(def)
	}
	return ordered
}
