package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/extract"
)

// Template represents a saved form template for data transfer between layers.
type Template struct {
	ID         uuid.UUID               `json:"id"`
	OwnerID    string                  `json:"owner_id"`
	Title      string                  `json:"title"`
	Fields     []extract.TemplateField `json:"fields"`
	SourceText string                  `json:"source_text,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Form returns the template as a validated-shape FormTemplate.
func (t *Template) Form() extract.FormTemplate {
	fields := make([]extract.TemplateField, len(t.Fields))
	copy(fields, t.Fields)
	return extract.FormTemplate{Title: t.Title, Fields: fields}
}
