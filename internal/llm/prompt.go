package llm

import (
	"strings"

	"github.com/joseph-ayodele/docflow/constants"
)

const systemTemplate = "You turn scanned documents into fillable form templates."

// BuildTemplatePrompt asks for a JSON form template derived from raw OCR text.
func BuildTemplatePrompt(ocrText string) Prompt {
	var b strings.Builder
	b.WriteString("The following is a raw OCR output of a document:\n\n\"")
	b.WriteString(truncate(ocrText))
	b.WriteString("\"\n\nGenerate a JSON form template with a title and clearly labeled fields. Keep it concise.")
	return Prompt{System: systemTemplate, User: b.String()}
}

// BuildStrictTemplatePrompt is the retry wording used after an unusable answer.
// It pins the exact shape and the allowed field types.
func BuildStrictTemplatePrompt(ocrText string) Prompt {
	var b strings.Builder
	b.WriteString("The following is a raw OCR output of a document:\n\n\"")
	b.WriteString(truncate(ocrText))
	b.WriteString("\"\n\nReturn ONLY a single JSON object and nothing else, shaped exactly like ")
	b.WriteString(`{"title": "Document Title", "fields": [{"label": "Field Label", "type": "text"}]}`)
	b.WriteString(". The title must be non-empty. Include at least one field and every field needs a non-empty label. ")
	b.WriteString("Allowed types: ")
	b.WriteString(strings.Join(constants.FieldTypesAsStrings(), ", "))
	b.WriteString(".")
	return Prompt{System: systemTemplate + " Reply with JSON only.", User: b.String()}
}

// BuildSummaryPrompt asks for a short summary followed by tag suggestions
// introduced by marker, which is where the answer is later split.
func BuildSummaryPrompt(text, marker string) Prompt {
	var b strings.Builder
	b.WriteString("Summarize the following document in two or three sentences. ")
	b.WriteString(marker)
	b.WriteString(" up to five short lowercase tags as a JSON array of strings.\n\nDocument:\n")
	b.WriteString(truncate(text))
	return Prompt{User: b.String()}
}

// BuildStrictSummaryPrompt is the retry wording for summaries whose tag list
// could not be read.
func BuildStrictSummaryPrompt(text, marker string) Prompt {
	var b strings.Builder
	b.WriteString("Summarize the following document in two or three sentences. Then write the exact words \"")
	b.WriteString(marker)
	b.WriteString(" tags:\" followed by a JSON array of up to five short lowercase strings, for example [\"invoice\", \"billing\"]. ")
	b.WriteString("Do not write anything after the array.\n\nDocument:\n")
	b.WriteString(truncate(text))
	return Prompt{User: b.String()}
}

// BuildQuestionPrompt wraps a free-form question from the dashboard.
func BuildQuestionPrompt(question string) Prompt {
	return Prompt{
		System: "You explain legal and business document terms in plain language. Keep answers short.",
		User:   strings.TrimSpace(question),
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= constants.MaxOCRChars {
		return s
	}
	cut := constants.MaxOCRChars
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n…(truncated)"
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
