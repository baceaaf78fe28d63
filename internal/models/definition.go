package models

import (
	"time"

	"github.com/google/uuid"
)

// ModelRecord is one persisted dynamic model definition.
type ModelRecord struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	Name          string    `json:"name"`
	DBTable       *string   `json:"db_table,omitempty"`
	Unmanaged     bool      `json:"unmanaged"`
	VerboseName   *string   `json:"verbose_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (m *ModelRecord) Prepare() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// FieldRecord is one persisted field definition. Options carries the legacy
// comma-separated option string; it is decoded into typed options at the
// service boundary.
type FieldRecord struct {
	ID           uuid.UUID `json:"id"`
	ModelID      uuid.UUID `json:"model_id"`
	Name         string    `json:"name"`
	FieldType    string    `json:"field_type"`
	Options      string    `json:"options,omitempty"`
	PreviousName *string   `json:"previous_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (f *FieldRecord) Prepare() {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
}

// RelationshipRecord is one persisted relationship definition.
type RelationshipRecord struct {
	ID           uuid.UUID `json:"id"`
	ModelID      uuid.UUID `json:"model_id"`
	Name         string    `json:"name"`
	RelationType string    `json:"relation_type"`
	RelatedModel string    `json:"related_model"`
	Options      string    `json:"options,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *RelationshipRecord) Prepare() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
}
