package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"schemakit/internal/erd"
	"schemakit/internal/models"
	"schemakit/internal/repositories"
)

// ConversionService runs ERD graph conversions and persists valid results as
// model definitions.
type ConversionService struct {
	definitions *repositories.DefinitionRepository
}

func NewConversionService(definitions *repositories.DefinitionRepository) *ConversionService {
	return &ConversionService{definitions: definitions}
}

// Convert parses and converts an ERD graph without touching storage. Used by
// the CLI and by callers that only want the result payload.
func (s *ConversionService) Convert(graphJSON []byte, appName string) (*erd.ConversionResult, error) {
	graph, err := erd.ParseGraph(graphJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERD graph: %w", err)
	}
	return erd.ConvertGraph(graph, appName), nil
}

// ConvertAndStore converts an ERD graph and, when the result validates,
// replaces the application's stored model definitions with it. Invalid
// results are returned with their errors and leave storage untouched.
func (s *ConversionService) ConvertAndStore(ctx context.Context, graphJSON []byte, appName string) (*erd.ConversionResult, error) {
	result, err := s.Convert(graphJSON, appName)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		log.Printf("conversion for %q produced %d validation errors, not persisting", appName, len(result.Errors))
		return result, nil
	}

	app, err := s.definitions.EnsureApplication(ctx, appName)
	if err != nil {
		return nil, err
	}

	records, fields, relationships := descriptorsToRecords(result.Models)
	if err := s.definitions.ReplaceModels(ctx, app.ID, records, fields, relationships); err != nil {
		return nil, fmt.Errorf("failed to persist conversion for %q: %w", appName, err)
	}

	log.Printf("stored %d models, %d fields, %d relationships for application %q",
		result.ModelCount, result.FieldCount, result.RelationshipCount, appName)
	return result, nil
}

// descriptorsToRecords flattens converter output into definition rows keyed
// by model ID, with field and relationship options in the legacy encoding.
func descriptorsToRecords(descs []erd.ModelDescriptor) (
	[]models.ModelRecord,
	map[uuid.UUID][]models.FieldRecord,
	map[uuid.UUID][]models.RelationshipRecord) {

	records := make([]models.ModelRecord, 0, len(descs))
	fields := make(map[uuid.UUID][]models.FieldRecord)
	relationships := make(map[uuid.UUID][]models.RelationshipRecord)

	for _, desc := range descs {
		rec := models.ModelRecord{
			Name:      desc.Name,
			Unmanaged: desc.Meta.Unmanaged,
		}
		if desc.Meta.DBTable != "" {
			table := desc.Meta.DBTable
			rec.DBTable = &table
		}
		if desc.Meta.VerboseName != "" {
			verbose := desc.Meta.VerboseName
			rec.VerboseName = &verbose
		}
		rec.Prepare()

		for _, f := range desc.Fields {
			fields[rec.ID] = append(fields[rec.ID], models.FieldRecord{
				ModelID:   rec.ID,
				Name:      f.Name,
				FieldType: string(f.Type),
				Options:   f.Options.Encode(),
			})
		}
		for _, rel := range desc.Relationships {
			relationships[rec.ID] = append(relationships[rec.ID], models.RelationshipRecord{
				ModelID:      rec.ID,
				Name:         rel.Name,
				RelationType: string(rel.Kind),
				RelatedModel: rel.RelatedModel,
				Options:      rel.Options.Encode(),
			})
		}

		records = append(records, rec)
	}
	return records, fields, relationships
}
