package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name          string
		raw, marker   string
		wantSummary   string
		wantRemainder string
	}{
		{
			name:          "marker present",
			raw:           "  This is an invoice.\nThen suggest tags: [\"a\"]",
			marker:        "Then suggest",
			wantSummary:   "This is an invoice.",
			wantRemainder: "Then suggest tags: [\"a\"]",
		},
		{
			name:          "marker absent",
			raw:           "  Summary only.  ",
			marker:        "Then suggest",
			wantSummary:   "Summary only.",
			wantRemainder: "",
		},
		{
			name:          "first occurrence wins",
			raw:           "A. Then suggest one. Then suggest two.",
			marker:        "Then suggest",
			wantSummary:   "A.",
			wantRemainder: "Then suggest one. Then suggest two.",
		},
		{
			name:          "empty marker",
			raw:           " x Then suggest y ",
			marker:        "",
			wantSummary:   "x Then suggest y",
			wantRemainder: "",
		},
		{
			name:          "marker at start",
			raw:           "Then suggest [\"x\"]",
			marker:        "Then suggest",
			wantSummary:   "",
			wantRemainder: "Then suggest [\"x\"]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, rest := Segment(tt.raw, tt.marker)
			assert.Equal(t, tt.wantSummary, summary)
			assert.Equal(t, tt.wantRemainder, rest)
		})
	}
}

func TestNewSegmenter_DefaultMarker(t *testing.T) {
	assert.Equal(t, DefaultMarker, NewSegmenter("  ").Marker)
	assert.Equal(t, "Tags:", NewSegmenter("Tags:").Marker)

	summary, rest := NewSegmenter("Tags:").Split("Lease. Tags: [\"lease\"]")
	assert.Equal(t, "Lease.", summary)
	assert.Equal(t, "Tags: [\"lease\"]", rest)
}
