package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/repository"
)

type OCRStage struct {
	Docs          Documents
	JobsRepo      repository.ProcessJobRepository
	TextExtractor TextExtractor
	Logger        *slog.Logger
}

func NewOCRStage(docs Documents, jobs repository.ProcessJobRepository, tx TextExtractor, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Docs: docs, JobsRepo: jobs, TextExtractor: tx, Logger: logger}
}

// Run OCRs the document's stored file, saves the text on the document and
// marks the job OCR_OK. The analysis stage is not called.
func (p *OCRStage) Run(ctx context.Context, jobID uuid.UUID, doc *entity.Document) (ocr.ExtractionResult, error) {
	row, err := p.Docs.File(ctx, doc)
	if err != nil {
		return ocr.ExtractionResult{}, fmt.Errorf("get file: %w", err)
	}

	format := constants.MapExtToFormat(row.FileExt)
	if format == constants.UNKNOWN {
		return ocr.ExtractionResult{}, fmt.Errorf("unsupported format: %s", row.FileExt)
	}

	res, err := p.TextExtractor.Extract(ctx, row.StoragePath)
	if err != nil {
		return res, err
	}

	if format == constants.IMAGE && res.Confidence > 0 && res.Confidence < ocr.LowConfidence {
		p.Logger.Warn("pipeline.ocr.low_confidence", "document_id", doc.ID, "job_id", jobID, "conf", res.Confidence)
	}

	if err := p.Docs.SetText(ctx, doc.ID, res.Text); err != nil {
		return res, fmt.Errorf("store text: %w", err)
	}
	if err := p.JobsRepo.MarkOCR(ctx, jobID, res.Method, res.Confidence); err != nil {
		return res, err
	}
	return res, nil
}
