package extract

import (
	"encoding/json"

	"github.com/joseph-ayodele/docflow/constants"
)

// TemplateField is one labeled input of a form template.
type TemplateField struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	Name  string `json:"name"`
}

// InputKind resolves Type to a renderable kind; unknown types render as text.
func (f TemplateField) InputKind() constants.FieldType {
	ft, _ := constants.CanonicalFieldType(f.Type)
	return ft
}

// FormTemplate is a validated template: a non-empty title and at least one field.
type FormTemplate struct {
	Title  string          `json:"title"`
	Fields []TemplateField `json:"fields"`
}

// FieldNames returns the form keys in field order.
func (t FormTemplate) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// JSON encodes the template in the same shape ParseTemplate accepts.
func (t FormTemplate) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// Candidate is a decoded but not yet validated template object.
type Candidate map[string]any
