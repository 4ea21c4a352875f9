package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/ocr"
)

// TextExtractor is stage 1: stored file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Documents is the slice of the document service the stages need.
type Documents interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	File(ctx context.Context, doc *entity.Document) (*entity.DocumentFile, error)
	SetText(ctx context.Context, id uuid.UUID, text string) error
	Analyze(ctx context.Context, id uuid.UUID) (*entity.Document, error)
}
