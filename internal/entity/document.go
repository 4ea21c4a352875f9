package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
)

// Document represents a user document for data transfer between layers.
type Document struct {
	ID         uuid.UUID                `json:"id"`
	OwnerID    string                   `json:"owner_id"`
	SharedWith []string                 `json:"shared_with,omitempty"`
	TemplateID *uuid.UUID               `json:"template_id,omitempty"`
	FileID     *uuid.UUID               `json:"file_id,omitempty"`
	Title      string                   `json:"title"`
	Status     constants.DocumentStatus `json:"status"`
	Content    map[string]string        `json:"content,omitempty"`
	Text       string                   `json:"text,omitempty"`
	Summary    string                   `json:"summary,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	Signature  string                   `json:"signature,omitempty"` // PNG data URL
	SignedAt   *time.Time               `json:"signed_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// IsSigned reports whether a signature has been captured.
func (d *Document) IsSigned() bool {
	return d.Status == constants.DocumentSigned && d.Signature != ""
}

// CanEdit reports whether userID owns the document.
func CanEdit(userID string, d *Document) bool {
	return d != nil && userID != "" && d.OwnerID == userID
}

// CanView reports whether userID owns the document or it was shared with them.
func CanView(userID string, d *Document) bool {
	if CanEdit(userID, d) {
		return true
	}
	return d != nil && userID != "" && slices.Contains(d.SharedWith, userID)
}

// DocumentFilter narrows document listings. Zero values match everything.
type DocumentFilter struct {
	OwnerID string
	Status  constants.DocumentStatus
	Tag     string
	FileID  uuid.UUID
	Limit   int
	Offset  int
}
