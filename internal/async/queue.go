package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks for one document to be OCR'd and analyzed.
type Job struct {
	DocumentID  uuid.UUID
	Force       bool // reprocess a document that was already analyzed
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// DocumentProcessor runs the processing pipeline for one document. Without
// force, documents that were already analyzed are skipped.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, documentID uuid.UUID, force bool) (uuid.UUID, error)
}
