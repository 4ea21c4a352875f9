package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/repository"
)

// Processor coordinates OCR (text extract) then AI analysis (summary + tags).
type Processor struct {
	Logger  *slog.Logger
	Docs    Documents
	Jobs    repository.ProcessJobRepository
	OCR     *OCRStage
	Analyze *AnalyzeStage
}

func NewProcessor(logger *slog.Logger, docs Documents, jobs repository.ProcessJobRepository, ocr *OCRStage, analyze *AnalyzeStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Docs: docs, Jobs: jobs, OCR: ocr, Analyze: analyze}
}

// ProcessDocument OCRs a document's file when it has no text yet, then runs
// the analysis. A document that already has a summary is skipped unless force
// is set, which also re-runs OCR on the stored file. Every run is recorded as
// a process job whose ID is returned; a skipped document returns uuid.Nil.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID, force bool) (uuid.UUID, error) {
	doc, err := p.Docs.Get(ctx, documentID)
	if err != nil {
		p.Logger.Error("processor.load.failed", "document_id", documentID, "error", err)
		return uuid.Nil, err
	}
	if doc.Summary != "" && !force {
		p.Logger.Info("processor.skipped", "document_id", documentID, "reason", "already analyzed")
		return uuid.Nil, nil
	}
	runOCR := doc.FileID != nil && (doc.Text == "" || force)

	format := constants.TXT
	if runOCR {
		if f, err := p.Docs.File(ctx, doc); err == nil {
			format = constants.MapExtToFormat(filepath.Ext(f.Filename))
		}
	}

	job, err := p.Jobs.Start(ctx, doc.ID, format)
	if err != nil {
		return uuid.Nil, err
	}

	fail := func(err error) (uuid.UUID, error) {
		if ferr := p.Jobs.FinishFailure(ctx, job.ID, err.Error()); ferr != nil {
			p.Logger.Error("processor.job.finish_failed", "job_id", job.ID, "error", ferr)
		}
		return job.ID, err
	}

	// 1) OCR stage, skipped when the document already carries text
	if runOCR {
		res, err := p.OCR.Run(ctx, job.ID, doc)
		if err != nil {
			p.Logger.Error("processor.ocr.failed", "document_id", documentID, "job_id", job.ID, "error", err)
			return fail(err)
		}
		p.Logger.Info("processor.ocr.ok",
			"document_id", documentID,
			"job_id", job.ID,
			"method", res.Method,
			"pages", res.Pages,
			"confidence", res.Confidence,
		)
	}

	// 2) analysis stage
	if _, err := p.Analyze.Run(ctx, job.ID, documentID); err != nil {
		return fail(err)
	}
	if err := p.Jobs.FinishOK(ctx, job.ID); err != nil {
		return job.ID, err
	}
	p.Logger.Info("processor.done", "document_id", documentID, "job_id", job.ID)
	return job.ID, nil
}
