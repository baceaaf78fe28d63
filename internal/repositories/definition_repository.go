package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schemakit/internal/models"
)

// DefinitionRepository persists applications, model definitions, field
// definitions and relationship definitions.
type DefinitionRepository struct {
	pool *pgxpool.Pool
}

func NewDefinitionRepository(pool *pgxpool.Pool) *DefinitionRepository {
	return &DefinitionRepository{pool: pool}
}

// EnsureApplication returns the application with the given name, creating it
// when absent.
func (r *DefinitionRepository) EnsureApplication(ctx context.Context, name string) (*models.Application, error) {
	app := &models.Application{Name: name}
	app.Prepare()

	query := `
		INSERT INTO applications (id, name, label)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, label, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, app.ID, app.Name, app.Label).
		Scan(&app.ID, &app.Name, &app.Label, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure application %q: %w", name, err)
	}
	return app, nil
}

func (r *DefinitionRepository) GetApplicationByName(ctx context.Context, name string) (*models.Application, error) {
	var app models.Application
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, label, created_at, updated_at
		FROM applications WHERE name = $1
	`, name).Scan(&app.ID, &app.Name, &app.Label, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ReplaceModels atomically replaces every model definition of an application.
// Conversion output is persisted all-or-nothing; a half-written model set is
// never observable.
func (r *DefinitionRepository) ReplaceModels(ctx context.Context, appID uuid.UUID,
	records []models.ModelRecord, fields map[uuid.UUID][]models.FieldRecord,
	relationships map[uuid.UUID][]models.RelationshipRecord) error {

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM model_definitions WHERE application_id = $1`, appID); err != nil {
		return fmt.Errorf("failed to clear existing definitions: %w", err)
	}

	for i := range records {
		rec := &records[i]
		rec.Prepare()
		_, err := tx.Exec(ctx, `
			INSERT INTO model_definitions (id, application_id, name, db_table, unmanaged, verbose_name)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rec.ID, appID, rec.Name, rec.DBTable, rec.Unmanaged, rec.VerboseName)
		if err != nil {
			return fmt.Errorf("failed to insert model %q: %w", rec.Name, err)
		}

		for j := range fields[rec.ID] {
			f := &fields[rec.ID][j]
			f.Prepare()
			_, err := tx.Exec(ctx, `
				INSERT INTO field_definitions (id, model_id, name, field_type, options, previous_name)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, f.ID, rec.ID, f.Name, f.FieldType, f.Options, f.PreviousName)
			if err != nil {
				return fmt.Errorf("failed to insert field %s.%s: %w", rec.Name, f.Name, err)
			}
		}

		for j := range relationships[rec.ID] {
			rel := &relationships[rec.ID][j]
			rel.Prepare()
			_, err := tx.Exec(ctx, `
				INSERT INTO relationship_definitions (id, model_id, name, relation_type, related_model, options)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, rel.ID, rec.ID, rel.Name, rel.RelationType, rel.RelatedModel, rel.Options)
			if err != nil {
				return fmt.Errorf("failed to insert relationship %s.%s: %w", rec.Name, rel.Name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *DefinitionRepository) ListModels(ctx context.Context, appID uuid.UUID) ([]models.ModelRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, application_id, name, db_table, unmanaged, verbose_name, created_at, updated_at
		FROM model_definitions
		WHERE application_id = $1
		ORDER BY name
	`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ModelRecord
	for rows.Next() {
		var rec models.ModelRecord
		if err := rows.Scan(&rec.ID, &rec.ApplicationID, &rec.Name, &rec.DBTable,
			&rec.Unmanaged, &rec.VerboseName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *DefinitionRepository) GetModelByName(ctx context.Context, appID uuid.UUID, name string) (*models.ModelRecord, error) {
	var rec models.ModelRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, application_id, name, db_table, unmanaged, verbose_name, created_at, updated_at
		FROM model_definitions
		WHERE application_id = $1 AND name = $2
	`, appID, name).Scan(&rec.ID, &rec.ApplicationID, &rec.Name, &rec.DBTable,
		&rec.Unmanaged, &rec.VerboseName, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *DefinitionRepository) ListFields(ctx context.Context, modelID uuid.UUID) ([]models.FieldRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, model_id, name, field_type, options, previous_name, created_at, updated_at
		FROM field_definitions
		WHERE model_id = $1
		ORDER BY created_at, name
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []models.FieldRecord
	for rows.Next() {
		var f models.FieldRecord
		if err := rows.Scan(&f.ID, &f.ModelID, &f.Name, &f.FieldType,
			&f.Options, &f.PreviousName, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *DefinitionRepository) ListRelationships(ctx context.Context, modelID uuid.UUID) ([]models.RelationshipRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, model_id, name, relation_type, related_model, options, created_at, updated_at
		FROM relationship_definitions
		WHERE model_id = $1
		ORDER BY created_at, name
	`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []models.RelationshipRecord
	for rows.Next() {
		var rel models.RelationshipRecord
		if err := rows.Scan(&rel.ID, &rel.ModelID, &rel.Name, &rel.RelationType,
			&rel.RelatedModel, &rel.Options, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// UpdateField sets the field's type and options, recording the old name as
// the rename hint when the name changes.
func (r *DefinitionRepository) UpdateField(ctx context.Context, fieldID uuid.UUID, name, fieldType, options string, previousName *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE field_definitions
		SET name = $2, field_type = $3, options = $4, previous_name = $5, updated_at = NOW()
		WHERE id = $1
	`, fieldID, name, fieldType, options, previousName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("field %s not found", fieldID)
	}
	return nil
}

// ClearRenameHints resets previous_name on every field of a model, called
// after a successful synchronization consumed the hints.
func (r *DefinitionRepository) ClearRenameHints(ctx context.Context, modelID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE field_definitions SET previous_name = NULL
		WHERE model_id = $1 AND previous_name IS NOT NULL
	`, modelID)
	return err
}

func (r *DefinitionRepository) DeleteModel(ctx context.Context, modelID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM model_definitions WHERE id = $1`, modelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("model %s not found", modelID)
	}
	return nil
}
