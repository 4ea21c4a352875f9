package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
)

// Uploader stores file bytes as a document.
type Uploader interface {
	Upload(ctx context.Context, req documents.UploadRequest) (*documents.UploadResult, error)
}

// FSIngestor reads scanned documents from the local filesystem.
type FSIngestor struct {
	Uploader Uploader
	Logger   *slog.Logger
}

func NewFSIngestor(u Uploader, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Uploader: u,
		Logger:   logger,
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, ownerID, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		i.Logger.Error("ingest.abs_failed", "path", path, "error", err)
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.Logger.Warn("ingest.unsupported", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, err
	}
	if info.Size() > constants.MaxUploadBytes {
		return out, fmt.Errorf("file exceeds %d bytes", constants.MaxUploadBytes)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		i.Logger.Error("ingest.read_failed", "path", abs, "error", err)
		return out, err
	}

	res, err := i.Uploader.Upload(ctx, documents.UploadRequest{
		OwnerID:    ownerID,
		Filename:   filepath.Base(abs),
		SourcePath: abs,
		Data:       data,
	})
	if err != nil {
		return out, err
	}

	out = IngestionResult{
		SourcePath:   abs,
		DocumentID:   res.Document.ID.String(),
		FileID:       res.File.ID.String(),
		Deduplicated: res.Deduplicated,
		HashHex:      res.HashHex,
		FileExt:      res.File.FileExt,
		UploadedAt:   res.File.UploadedAt,
	}
	return out, nil
}

// IngestDirectory stores every supported file under root. Per-file failures
// are reported in the results; only a failed walk returns an error.
func (i *FSIngestor) IngestDirectory(ctx context.Context, ownerID, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	var (
		results []IngestionResult
		stats   DirStats
	)
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root_path is required")
	}

	start := time.Now()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			r := IngestionResult{SourcePath: path, Err: walkErr.Error()}
			results = append(results, r)
			stats.record(r)
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, ownerID, path)
		if err != nil {
			r = IngestionResult{SourcePath: path, Err: err.Error()}
		}
		results = append(results, r)
		stats.record(r)
		return nil
	})
	i.Logger.Info("ingest.directory.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	return results, stats, nil
}
