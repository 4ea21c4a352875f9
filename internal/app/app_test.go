package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
)

type stubOCR struct{}

func (stubOCR) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: "Lease between Acme and Jane.", Method: "image-ocr", SourceType: constants.IMAGE, Confidence: 0.8}, nil
}

func TestNew_ProcessesUploadsThroughQueue(t *testing.T) {
	ctx := context.Background()
	cfg := &common.Config{
		Database: common.DatabaseConfig{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())},
		OCR:      common.OCRConfig{StorageDir: t.TempDir()},
		LLM:      common.LLMConfig{TagMarker: "Then suggest"},
		Ingest:   common.IngestConfig{Workers: 1, QueueSize: 4, ProcessAfter: 5 * time.Second},
	}
	completer := llm.CompleterFunc(func(context.Context, llm.Prompt) (string, error) {
		return `A lease. Then suggest tags: ["lease"]`, nil
	})

	a, err := New(ctx, cfg, nil, Options{Completer: completer, OCR: stubOCR{}})
	require.NoError(t, err)
	require.NoError(t, a.Health(ctx))

	res, err := a.Documents.Upload(ctx, documents.UploadRequest{OwnerID: "alice", Filename: "lease.png", Data: []byte("\x89PNG")})
	require.NoError(t, err)
	require.NoError(t, a.Queue.Enqueue(ctx, async.Job{DocumentID: res.Document.ID}))

	// Shutdown drains pending jobs; Close repeats it harmlessly.
	a.Queue.Shutdown(ctx)
	defer a.Close(ctx)

	doc, err := a.Documents.Get(ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lease between Acme and Jane.", doc.Text)
	assert.Equal(t, "A lease.", doc.Summary)
	assert.Equal(t, []string{"lease"}, doc.Tags)
}
