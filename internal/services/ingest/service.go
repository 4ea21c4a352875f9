package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/ingest"
)

// Service handles ingestion business logic.
type Service struct {
	ingestor ingest.Ingestor
	queue    async.Queue
	logger   *slog.Logger
}

// NewService creates a new ingest service. A nil queue stores files without
// scheduling processing.
func NewService(ing ingest.Ingestor, q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ingestor: ing,
		queue:    q,
		logger:   logger,
	}
}

// FileIngestRequest represents file ingestion parameters.
type FileIngestRequest struct {
	OwnerID        string
	Path           string
	SkipDuplicates bool
}

// DirectoryIngestResult represents directory ingestion results.
type DirectoryIngestResult struct {
	Statistics ingest.DirStats
	Results    []ingest.IngestionResult
}

// IngestFile ingests a single file and queues it for processing.
func (s *Service) IngestFile(ctx context.Context, req FileIngestRequest) (ingest.IngestionResult, error) {
	validator := common.NewValidator()
	validator.Field("owner_id", req.OwnerID, common.Required)
	validator.Field("path", req.Path, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		s.logger.Error("invalid ingest request", "owner_id", req.OwnerID, "path", req.Path, "error", err)
		return ingest.IngestionResult{}, err
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	path := strings.TrimSpace(req.Path)

	s.logger.Info("starting file ingest", "owner_id", ownerID, "path", path)
	r, err := s.ingestor.IngestPath(ctx, ownerID, path)
	if err != nil {
		return ingest.IngestionResult{}, common.NewAppError("INGEST_FAILED", "ingest "+path, err)
	}
	s.logger.Info("file ingest succeeded", "owner_id", ownerID, "document_id", r.DocumentID, "deduplicated", r.Deduplicated)

	if err := s.ProcessIngestedFile(ctx, &r, req.SkipDuplicates); err != nil {
		return r, err
	}
	return r, nil
}

// DirectoryIngestRequest represents directory ingestion parameters.
type DirectoryIngestRequest struct {
	OwnerID        string
	RootPath       string
	IncludeHidden  bool
	SkipDuplicates bool
}

// IngestDirectory ingests all files in a directory and queues each new one.
func (s *Service) IngestDirectory(ctx context.Context, req DirectoryIngestRequest) (*DirectoryIngestResult, error) {
	validator := common.NewValidator()
	validator.Field("owner_id", req.OwnerID, common.Required)
	validator.Field("root_path", req.RootPath, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	root := strings.TrimSpace(req.RootPath)
	skipHidden := !req.IncludeHidden

	s.logger.Info("starting directory ingest", "owner_id", ownerID, "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, ownerID, root, skipHidden)
	if err != nil {
		return nil, common.NewAppError("INGEST_FAILED", "ingest directory "+root, err)
	}

	for i := range results {
		if err := s.ProcessIngestedFile(ctx, &results[i], req.SkipDuplicates); err != nil {
			results[i].Err = err.Error()
		}
	}

	s.logger.Info("directory ingest completed", "owner_id", ownerID, "scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)

	return &DirectoryIngestResult{
		Statistics: stats,
		Results:    results,
	}, nil
}

// ProcessIngestedFile queues an ingested document for OCR and analysis.
func (s *Service) ProcessIngestedFile(ctx context.Context, result *ingest.IngestionResult, skipDuplicates bool) error {
	if s.queue == nil || result.Err != "" || result.DocumentID == "" {
		return nil
	}

	docID, err := uuid.Parse(result.DocumentID)
	if err != nil {
		s.logger.Error("invalid document_id: cannot enqueue", "document_id", result.DocumentID, "error", err)
		return common.NewAppError("INVALID_DOCUMENT_ID", "invalid document_id", common.ErrInvalidInput)
	}

	if result.Deduplicated && skipDuplicates {
		s.logger.Info("skipping processing (duplicate)", "document_id", result.DocumentID, "path", result.SourcePath)
		return nil
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		DocumentID:  docID,
		Force:       result.Deduplicated,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(ctx),
	}); err != nil {
		s.logger.Error("enqueue failed for document", "document_id", result.DocumentID, "error", err)
		return common.NewAppError("ENQUEUE_FAILED", "enqueue", err)
	}
	return nil
}

// Watch ingests every path the watcher emits until the channel closes.
func (s *Service) Watch(ctx context.Context, ownerID string, paths <-chan string, skipDuplicates bool) {
	for p := range paths {
		if _, err := s.IngestFile(ctx, FileIngestRequest{OwnerID: ownerID, Path: p, SkipDuplicates: skipDuplicates}); err != nil {
			s.logger.Warn("watch.ingest_failed", "path", p, "error", err)
		}
	}
}
