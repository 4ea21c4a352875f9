// Package extract turns free-form AI completions into tag lists and form
// templates. Everything here is pure and safe for concurrent use.
package extract

import (
	"errors"
)

// Target names the structure a completion is expected to contain.
type Target int

const (
	TargetTagList Target = iota
	TargetFormTemplate
)

func (t Target) String() string {
	switch t {
	case TargetTagList:
		return "tag_list"
	case TargetFormTemplate:
		return "form_template"
	default:
		return "unknown"
	}
}

// Result is the outcome of Extract. Exactly one of Tags, Template or Err is
// meaningful, selected by Target and Err.
type Result struct {
	Target   Target
	Tags     []string
	Template FormTemplate
	Err      error
}

// Ok reports whether extraction succeeded.
func (r Result) Ok() bool { return r.Err == nil }

// Kind returns the failure kind, or "" on success.
func (r Result) Kind() Kind { return KindOf(r.Err) }

// Extract locates, decodes and validates the target structure in raw.
func Extract(raw string, target Target) Result {
	switch target {
	case TargetTagList:
		tags, err := ExtractTags(raw)
		return Result{Target: target, Tags: tags, Err: err}
	case TargetFormTemplate:
		tpl, err := ExtractTemplate(raw)
		return Result{Target: target, Template: tpl, Err: err}
	default:
		return Result{Target: target, Err: errors.New("extract: unknown target")}
	}
}

// ExtractTags returns the first JSON array of strings in raw.
func ExtractTags(raw string) ([]string, error) {
	block, err := FindBlock(raw, BlockArray)
	if err != nil {
		return nil, err
	}
	return ParseTags(block)
}

// ExtractTemplate returns the first JSON object in raw as a validated template.
func ExtractTemplate(raw string) (FormTemplate, error) {
	block, err := FindBlock(raw, BlockObject)
	if err != nil {
		return FormTemplate{}, err
	}
	c, err := ParseTemplate(block)
	if err != nil {
		return FormTemplate{}, err
	}
	return ValidateTemplate(c)
}

// Analysis is a summary with the tags suggested after it.
type Analysis struct {
	Summary string
	Tags    []string
}

// Summarize splits a summary-and-tags completion and extracts the tags from
// the part after the marker. On a tag failure the summary is still returned
// together with the error; callers usually treat ErrNoBlockFound as "no tags".
func Summarize(raw string, seg Segmenter) (Analysis, error) {
	summary, remainder := seg.Split(raw)
	a := Analysis{Summary: summary}
	tags, err := ExtractTags(remainder)
	if err != nil {
		return a, err
	}
	a.Tags = tags
	return a, nil
}
