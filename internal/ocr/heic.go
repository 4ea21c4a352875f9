package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docflow/constants"
)

func isHEIC(path string) bool {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "heic", "heif":
		return true
	}
	return false
}

// convertHEIC writes a PNG copy of a HEIC/HEIF photo into a temp dir.
// The returned cleanup removes it and is non-nil whenever the dir was made.
func (e *Extractor) convertHEIC(ctx context.Context, in string) (string, func(), error) {
	var args func(out string) []string
	switch e.cfg.HeicConverter {
	case "heif-convert", "magick":
		args = func(out string) []string { return []string{in, out} }
	case "sips":
		args = func(out string) []string { return []string{"-s", "format", "png", in, "--out", out} }
	default:
		return "", nil, fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to heif-convert, magick or sips")
	}

	tmpDir, err := os.MkdirTemp("", "docflow-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	if _, errb, err := e.runner.Run(ctx, e.cfg.HeicConverter, args(out)...); err != nil {
		return "", cleanup, fmt.Errorf("%s failed: %w (%s)", e.cfg.HeicConverter, err, truncate(string(errb), 512))
	}
	if _, err := os.Stat(out); err != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	e.logger.Debug("ocr.heic.converted", "path", in, "converter", e.cfg.HeicConverter)
	return out, cleanup, nil
}
