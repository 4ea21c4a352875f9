package constants

import (
	"strings"
)

// FieldType is the input kind a template field renders as.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldTextarea  FieldType = "textarea"
	FieldNumber    FieldType = "number"
	FieldDate      FieldType = "date"
	FieldEmail     FieldType = "email"
	FieldTel       FieldType = "tel"
	FieldCheckbox  FieldType = "checkbox"
	FieldSelect    FieldType = "select"
	FieldSignature FieldType = "signature"
)

// DefaultFieldType is used when a field carries no type.
const DefaultFieldType = FieldText

var allFieldTypes = []FieldType{
	FieldText,
	FieldTextarea,
	FieldNumber,
	FieldDate,
	FieldEmail,
	FieldTel,
	FieldCheckbox,
	FieldSelect,
	FieldSignature,
}

func FieldTypesAsStrings() []string {
	result := make([]string, len(allFieldTypes))
	for i, ft := range allFieldTypes {
		result[i] = string(ft)
	}
	return result
}

// CanonicalFieldType maps a raw type string to a known input kind.
// Unknown values resolve to text with ok=false.
func CanonicalFieldType(input string) (FieldType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DefaultFieldType, false
	}

	synonyms := map[string]FieldType{
		"string":    FieldText,
		"input":     FieldText,
		"multiline": FieldTextarea,
		"paragraph": FieldTextarea,
		"integer":   FieldNumber,
		"float":     FieldNumber,
		"currency":  FieldNumber,
		"datetime":  FieldDate,
		"phone":     FieldTel,
		"boolean":   FieldCheckbox,
		"bool":      FieldCheckbox,
		"dropdown":  FieldSelect,
	}
	if ft, ok := synonyms[normalized]; ok {
		return ft, true
	}

	for _, ft := range allFieldTypes {
		if normalized == string(ft) {
			return ft, true
		}
	}

	return DefaultFieldType, false
}
