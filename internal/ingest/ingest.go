// Package ingest stores scanned documents found on the local filesystem and
// watches scan folders for new ones.
package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docflow/constants"
)

// IngestionResult is the outcome for one file. Err is set instead of the
// document fields when the file could not be stored.
type IngestionResult struct {
	SourcePath   string
	DocumentID   string
	FileID       string
	Deduplicated bool
	HashHex      string
	FileExt      string
	UploadedAt   time.Time
	Err          string
}

// DirStats counts what a directory walk saw and stored.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

func (s *DirStats) record(r IngestionResult) {
	if r.Err != "" {
		s.Failed++
		return
	}
	s.Succeeded++
	if r.Deduplicated {
		s.Deduplicated++
	}
}

// Ingestor is what the ingest service needs from a document source.
type Ingestor interface {
	IngestPath(ctx context.Context, ownerID, path string) (IngestionResult, error)
	IngestDirectory(ctx context.Context, ownerID, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// AllowedExt reports whether ext names a scan format docflow can process.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden reports whether the last path element is a dotfile.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
