package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/docflow/constants"
)

// extractPDF prefers the embedded text layer and falls back to rasterizing
// the pages through tesseract when the layer is empty.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Language: e.cfg.TesseractLang}

	total, err := PageCount(path)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	last := total
	if e.cfg.MaxPages > 0 && (last == 0 || last > e.cfg.MaxPages) {
		last = e.cfg.MaxPages
		if total > last {
			res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", last, total))
		}
	}

	txt, pages, warn, err := e.pdfToText(ctx, path, last)
	res.Warnings = append(res.Warnings, warn...)
	if err == nil && nonSpaceLen(txt) >= e.cfg.MinTextChars {
		res.Text = Normalize(txt)
		res.Pages = pages
		res.Method = "pdf-text"
		res.Confidence = blendConfidence(0.95, heuristicConfidence(res.Text))
		return res, nil
	}
	if err != nil {
		res.Warnings = append(res.Warnings, "pdftotext: "+err.Error())
	}

	txt, pages, warn, err = e.pdfToOCR(ctx, path, last)
	res.Warnings = append(res.Warnings, warn...)
	if err != nil {
		return res, fmt.Errorf("pdf ocr: %w", err)
	}
	res.Text = Normalize(txt)
	res.Pages = pages
	res.Method = "pdf-ocr"
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string, lastPage int) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix [-l N] <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if lastPage > 0 {
		args = append(args, "-l", strconv.Itoa(lastPage))
	}
	args = append(args, path, "-")
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = strings.TrimRight(string(out), "\f")
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string, lastPage int) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "docflow-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if lastPage > 0 {
		args = append(args, "-l", strconv.Itoa(lastPage))
	}
	args = append(args, path, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if lastPage > 0 && len(matches) > lastPage {
		matches = matches[:lastPage]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
