package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func RunMigrations(pool *pgxpool.Pool) error {
	ctx := context.Background()

	migrations := []string{
		createApplicationsTable,
		createModelDefinitionsTable,
		createFieldDefinitionsTable,
		createRelationshipDefinitionsTable,
	}

	for i, migration := range migrations {
		log.Printf("Running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("All migrations completed successfully")
	return nil
}

const createApplicationsTable = `
CREATE TABLE IF NOT EXISTS applications (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  name TEXT NOT NULL UNIQUE,
  label TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_applications_name ON applications(name);
`

const createModelDefinitionsTable = `
CREATE TABLE IF NOT EXISTS model_definitions (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  db_table TEXT,
  unmanaged BOOLEAN NOT NULL DEFAULT FALSE,
  verbose_name TEXT,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  UNIQUE (application_id, name)
);

CREATE INDEX IF NOT EXISTS idx_model_definitions_application_id ON model_definitions(application_id);
`

const createFieldDefinitionsTable = `
CREATE TABLE IF NOT EXISTS field_definitions (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  model_id UUID NOT NULL REFERENCES model_definitions(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  field_type TEXT NOT NULL,
  options TEXT NOT NULL DEFAULT '',
  previous_name TEXT,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  UNIQUE (model_id, name)
);

CREATE INDEX IF NOT EXISTS idx_field_definitions_model_id ON field_definitions(model_id);
`

const createRelationshipDefinitionsTable = `
CREATE TABLE IF NOT EXISTS relationship_definitions (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  model_id UUID NOT NULL REFERENCES model_definitions(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  relation_type TEXT NOT NULL,
  related_model TEXT NOT NULL,
  options TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  UNIQUE (model_id, name)
);

CREATE INDEX IF NOT EXISTS idx_relationship_definitions_model_id ON relationship_definitions(model_id);
`
