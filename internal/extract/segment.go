package extract

import "strings"

// DefaultMarker is the phrase the summary prompt asks the model to use before
// its tag suggestions.
const DefaultMarker = "Then suggest"

// Segmenter splits a summary-and-tags completion at a marker phrase.
//
// The split is a heuristic tied to the prompt wording: if the prompt changes so
// that the model no longer echoes the marker, every completion is treated as
// summary-only.
type Segmenter struct {
	Marker string
}

// NewSegmenter returns a Segmenter for marker, falling back to DefaultMarker.
func NewSegmenter(marker string) Segmenter {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return Segmenter{Marker: marker}
}

// Split returns the trimmed text before the marker and the untrimmed text from
// the marker onward.
func (s Segmenter) Split(raw string) (summary, remainder string) {
	return Segment(raw, s.Marker)
}

// Segment splits raw at the first occurrence of marker. When marker is empty
// or absent the whole trimmed input is the summary and remainder is "".
func Segment(raw, marker string) (summary, remainder string) {
	if marker == "" {
		return strings.TrimSpace(raw), ""
	}
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(raw[:idx]), raw[idx:]
}
