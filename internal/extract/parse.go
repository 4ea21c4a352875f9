package extract

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ParseTags strictly decodes a JSON array of strings into a lowercase TagList.
// Order and duplicates are preserved. A non-string or blank element is a
// schema failure, not a decoding one.
func ParseTags(block string) ([]string, error) {
	var raw []any
	if err := decodeStrict(block, &raw); err != nil {
		return nil, malformed(err)
	}
	tags := make([]string, 0, len(raw))
	for i, v := range raw {
		t, ok := v.(string)
		if !ok {
			return nil, schemaInvalid("tag %d is not a string", i)
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return nil, schemaInvalid("tag %d is blank", i)
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// ParseTemplate strictly decodes a JSON object into a Candidate. No repair is
// attempted on invalid JSON.
func ParseTemplate(block string) (Candidate, error) {
	var v any
	if err := decodeStrict(block, &v); err != nil {
		return nil, malformed(err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(errors.New("template is not a JSON object"))
	}
	return Candidate(obj), nil
}

func decodeStrict(block string, v any) error {
	dec := json.NewDecoder(strings.NewReader(block))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
