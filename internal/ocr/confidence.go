package ocr

import (
	"regexp"
	"strings"
)

var (
	reLabelColon = regexp.MustCompile(`(?m)^[\p{L}][\p{L} ./#()-]{1,40}:`)
	reBlankLine  = regexp.MustCompile(`_{3,}|\.{5,}`)
	reCheckbox   = regexp.MustCompile(`\[\s?[xX ]?\s?\]|☐|☑`)
	reDateLike   = regexp.MustCompile(`\b\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b|\bdate\b`)
)

// heuristicConfidence scores how much the text looks like a readable form.
// Labels followed by colons, fill-in blanks, checkboxes and dates each add to
// a small base score.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if n := len(reLabelColon.FindAllString(txt, 4)); n > 0 {
		score += 0.1 * float32(n) / 2
	}
	if reBlankLine.MatchString(txt) {
		score += 0.15
	}
	if reCheckbox.MatchString(txt) {
		score += 0.1
	}
	if reDateLike.MatchString(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
