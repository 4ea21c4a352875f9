package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/docflow/constants"
)

// ValidateTemplate checks a candidate and resolves it into a FormTemplate.
//
// A bare string field becomes a field with that label. An object field needs a
// non-empty label (a non-empty name is accepted in its place). A missing or
// blank type becomes "text"; any other type string is kept as given so the
// rendering layer can decide. Templates with no fields are rejected.
func ValidateTemplate(c Candidate) (FormTemplate, error) {
	if c == nil {
		return FormTemplate{}, schemaInvalid("template is empty")
	}
	if err := checkShape(c); err != nil {
		return FormTemplate{}, err
	}

	title, _ := c["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return FormTemplate{}, schemaInvalid("title is empty")
	}

	rawFields, _ := c["fields"].([]any)
	if len(rawFields) == 0 {
		return FormTemplate{}, schemaInvalid("template has no fields")
	}

	fields := make([]TemplateField, 0, len(rawFields))
	used := make(map[string]bool, len(rawFields))
	for i, rf := range rawFields {
		f, err := resolveField(i, rf)
		if err != nil {
			return FormTemplate{}, err
		}
		f.Name = uniqueName(f.Name, i, used)
		fields = append(fields, f)
	}

	return FormTemplate{Title: title, Fields: fields}, nil
}

func resolveField(i int, rf any) (TemplateField, error) {
	switch v := rf.(type) {
	case string:
		label := strings.TrimSpace(v)
		if label == "" {
			return TemplateField{}, schemaInvalid("field %d has an empty label", i)
		}
		return TemplateField{Label: label, Type: string(constants.DefaultFieldType), Name: Slug(label)}, nil

	case map[string]any:
		label, _ := v["label"].(string)
		label = strings.TrimSpace(label)
		name, _ := v["name"].(string)
		name = strings.TrimSpace(name)
		if label == "" {
			return TemplateField{}, schemaInvalid("field %d has no label", i)
		}

		typ, _ := v["type"].(string)
		typ = strings.TrimSpace(typ)
		if typ == "" {
			typ = string(constants.DefaultFieldType)
		}
		if name == "" {
			name = Slug(label)
		}
		return TemplateField{Label: label, Type: typ, Name: name}, nil

	default:
		return TemplateField{}, schemaInvalid("field %d is neither a string nor an object", i)
	}
}

// uniqueName picks the form key for field i: the given name, else a slug of
// the label, suffixed when it collides with an earlier field.
func uniqueName(name string, i int, used map[string]bool) string {
	if name == "" {
		name = fmt.Sprintf("field_%d", i+1)
	}
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	used[candidate] = true
	return candidate
}

// Slug turns a label into a lowercase form key such as "full_name".
func Slug(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
