// Package utils converts between entities and the structpb messages used on
// the gRPC surface.
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StringsToAny converts to the []any form structpb accepts.
func StringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func FieldsToAny(fields []extract.TemplateField) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = map[string]any{"label": f.Label, "type": f.Type, "name": f.Name}
	}
	return out
}

func FormToMap(t extract.FormTemplate) map[string]any {
	return map[string]any{"title": t.Title, "fields": FieldsToAny(t.Fields)}
}

func DocumentToMap(d *entity.Document) map[string]any {
	content := make(map[string]any, len(d.Content))
	for k, v := range d.Content {
		content[k] = v
	}
	m := map[string]any{
		"id":          d.ID.String(),
		"owner_id":    d.OwnerID,
		"shared_with": StringsToAny(d.SharedWith),
		"title":       d.Title,
		"status":      string(d.Status),
		"content":     content,
		"summary":     d.Summary,
		"tags":        StringsToAny(d.Tags),
		"signed":      d.IsSigned(),
		"created_at":  formatTime(d.CreatedAt),
		"updated_at":  formatTime(d.UpdatedAt),
	}
	if d.TemplateID != nil {
		m["template_id"] = d.TemplateID.String()
	}
	if d.FileID != nil {
		m["file_id"] = d.FileID.String()
	}
	if d.SignedAt != nil {
		m["signed_at"] = formatTime(*d.SignedAt)
	}
	return m
}

func TemplateToMap(t *entity.Template) map[string]any {
	return map[string]any{
		"id":         t.ID.String(),
		"owner_id":   t.OwnerID,
		"title":      t.Title,
		"fields":     FieldsToAny(t.Fields),
		"created_at": formatTime(t.CreatedAt),
		"updated_at": formatTime(t.UpdatedAt),
	}
}

func HistoryToMap(h *entity.HistoryEntry) map[string]any {
	return map[string]any{
		"id":          h.ID.String(),
		"document_id": h.DocumentID.String(),
		"action":      string(h.Action),
		"actor":       h.Actor,
		"detail":      h.Detail,
		"created_at":  formatTime(h.CreatedAt),
	}
}

func DocumentsToAny(docs []*entity.Document) []any {
	out := make([]any, len(docs))
	for i, d := range docs {
		out[i] = DocumentToMap(d)
	}
	return out
}

func TemplatesToAny(ts []*entity.Template) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = TemplateToMap(t)
	}
	return out
}

func HistoryToAny(hs []*entity.HistoryEntry) []any {
	out := make([]any, len(hs))
	for i, h := range hs {
		out[i] = HistoryToMap(h)
	}
	return out
}

// FormFromStruct validates a template object received over the wire.
func FormFromStruct(s *structpb.Struct) (extract.FormTemplate, error) {
	if s == nil {
		return extract.ValidateTemplate(extract.Candidate{})
	}
	return extract.ValidateTemplate(extract.Candidate(s.AsMap()))
}

// String returns a trimmed string field, or "" when absent or not a string.
func String(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// Bool returns a bool field, or def when absent.
func Bool(s *structpb.Struct, key string, def bool) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return def
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return def
	}
	return v.GetBoolValue()
}

// Int returns a numeric field truncated to int, or 0 when absent.
func Int(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

// Strings returns the string elements of a list field.
func Strings(s *structpb.Struct, key string) []string {
	var out []string
	for _, v := range s.GetFields()[key].GetListValue().GetValues() {
		if str, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, str.StringValue)
		}
	}
	return out
}

// StringMap returns a nested object field as string values. Non-string
// values are rendered with their JSON form.
func StringMap(s *structpb.Struct, key string) map[string]string {
	fields := s.GetFields()[key].GetStructValue().GetFields()
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if str, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out[k] = str.StringValue
			continue
		}
		b, _ := v.MarshalJSON()
		out[k] = string(b)
	}
	return out
}

// UUID parses a required UUID field.
func UUID(s *structpb.Struct, key string) (uuid.UUID, error) {
	raw := String(s, key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", key)
	}
	return id, nil
}
