package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
)

type AnalyzeStage struct {
	Docs   Documents
	Logger *slog.Logger
}

func NewAnalyzeStage(docs Documents, logger *slog.Logger) *AnalyzeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStage{Docs: docs, Logger: logger}
}

// Run summarizes and tags a document that already has text.
func (a *AnalyzeStage) Run(ctx context.Context, jobID, documentID uuid.UUID) (*entity.Document, error) {
	doc, err := a.Docs.Analyze(ctx, documentID)
	if err != nil {
		a.Logger.Error("pipeline.analyze.failed",
			"job_id", jobID,
			"document_id", documentID,
			"kind", extract.KindOf(err),
			"error", err,
		)
		return nil, err
	}
	a.Logger.Info("pipeline.analyze.ok", "job_id", jobID, "document_id", documentID, "tags", len(doc.Tags))
	return doc, nil
}
