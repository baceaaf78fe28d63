package models

import (
	"time"

	"github.com/google/uuid"
)

// Application groups a set of generated models under one namespace. The
// application name qualifies relationship targets ("shop.Customer").
type Application struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Application) Prepare() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Label == "" {
		a.Label = a.Name
	}
}
