package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
)

// ProcessJob records one background OCR + analysis run over a document.
type ProcessJob struct {
	ID           uuid.UUID           `json:"id"`
	DocumentID   uuid.UUID           `json:"document_id"`
	Format       string              `json:"format"`
	Status       constants.JobStatus `json:"status"`
	Method       string              `json:"method,omitempty"`
	Confidence   float32             `json:"confidence"`
	ErrorMessage string              `json:"error_message,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
