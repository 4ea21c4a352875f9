package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
)

// HistoryEntry is one timestamped line in a document's audit trail.
type HistoryEntry struct {
	ID         uuid.UUID               `json:"id"`
	DocumentID uuid.UUID               `json:"document_id"`
	Action     constants.HistoryAction `json:"action"`
	Actor      string                  `json:"actor,omitempty"`
	Detail     string                  `json:"detail,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}
