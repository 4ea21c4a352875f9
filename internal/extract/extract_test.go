package extract

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ContractReview(t *testing.T) {
	raw := `Summary: contract review. Then suggest tags: ["nda", "contract"]`

	summary, rest := Segment(raw, "Then suggest")
	assert.Equal(t, "Summary: contract review.", summary)
	assert.Equal(t, `Then suggest tags: ["nda", "contract"]`, rest)

	a, err := Summarize(raw, NewSegmenter("Then suggest"))
	require.NoError(t, err)
	assert.Equal(t, "Summary: contract review.", a.Summary)
	assert.Equal(t, []string{"nda", "contract"}, a.Tags)
}

func TestSummarize_NoTags(t *testing.T) {
	raw := "I cannot summarize this."

	r := Extract(raw, TargetTagList)
	require.False(t, r.Ok())
	assert.Equal(t, KindNoBlockFound, r.Kind())

	a, err := Summarize(raw, NewSegmenter(""))
	assert.True(t, errors.Is(err, ErrNoBlockFound))
	assert.Equal(t, "I cannot summarize this.", a.Summary)
	assert.Empty(t, a.Tags)
}

func TestExtract_TemplateDefaultsType(t *testing.T) {
	r := Extract(`{"title": "NDA", "fields": [{"label":"Party Name"}]}`, TargetFormTemplate)
	require.True(t, r.Ok(), "unexpected error: %v", r.Err)
	assert.Equal(t, FormTemplate{
		Title:  "NDA",
		Fields: []TemplateField{{Label: "Party Name", Type: "text", Name: "party_name"}},
	}, r.Template)
}

func TestExtract_EmptyTemplateRejected(t *testing.T) {
	r := Extract(`{"title": "", "fields": []}`, TargetFormTemplate)
	require.False(t, r.Ok())
	assert.Equal(t, KindSchemaInvalid, r.Kind())
	assert.True(t, errors.Is(r.Err, ErrSchemaInvalid))
	assert.True(t, IsRecoverable(r.Err))
}

func TestExtract_TemplateInProse(t *testing.T) {
	raw := "Sure! Here is the template:\n```json\n" +
		`{"title": "Visitor Log", "fields": ["Visitor", {"label": "Arrival", "type": "time"}, {"label": "Note: {optional}"}]}` +
		"\n```\nLet me know if you need more."

	tpl, err := ExtractTemplate(raw)
	require.NoError(t, err)
	assert.Equal(t, "Visitor Log", tpl.Title)
	assert.Equal(t, []string{"visitor", "arrival", "note_optional"}, tpl.FieldNames())
	assert.Equal(t, "time", tpl.Fields[1].Type)
}

func TestExtract_MalformedTemplate(t *testing.T) {
	r := Extract(`here: {"title": "x", "fields": ["a",]}`, TargetFormTemplate)
	require.False(t, r.Ok())
	assert.Equal(t, KindMalformedStructure, r.Kind())
}

func TestExtract_UnknownTarget(t *testing.T) {
	r := Extract("[]", Target(9))
	require.Error(t, r.Err)
	assert.False(t, IsRecoverable(r.Err))
	assert.Equal(t, "unknown", Target(9).String())
}

func TestExtract_TemplateRoundTrip(t *testing.T) {
	templates := []FormTemplate{
		{Title: "NDA", Fields: []TemplateField{{Label: "Party Name", Type: "text", Name: "party_name"}}},
		{
			Title: "Employment \"Offer\" [draft]",
			Fields: []TemplateField{
				{Label: "Start {date}", Type: "date", Name: "start_date"},
				{Label: "Salary", Type: "number", Name: "salary"},
				{Label: "Signature", Type: "signature", Name: "signature"},
				{Label: "Salary", Type: "custom-widget", Name: "salary_2"},
			},
		},
	}
	for i, want := range templates {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			b, err := want.JSON()
			require.NoError(t, err)

			got, err := ExtractTemplate("model says: " + string(b) + " done")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExtract_TagsRoundTrip(t *testing.T) {
	want := []string{"lease", "rent [monthly]", "lease"}
	r := Extract(`Then suggest: ["lease", "rent [monthly]", "lease"]`, TargetTagList)
	require.True(t, r.Ok())
	assert.Equal(t, want, r.Tags)
}

func TestExtract_Concurrent(t *testing.T) {
	raw := `{"title": "T", "fields": ["A", "B"]}`
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := Extract(raw, TargetFormTemplate)
			assert.True(t, r.Ok())
			assert.Len(t, r.Template.Fields, 2)
		}()
	}
	wg.Wait()
}
