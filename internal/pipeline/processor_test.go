package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/repository"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
)

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	s.calls++
	if s.err != nil {
		return ocr.ExtractionResult{}, s.err
	}
	return ocr.ExtractionResult{Text: s.text, Method: "image-ocr", Confidence: 0.8, Pages: 1, SourceType: constants.IMAGE}, nil
}

type harness struct {
	proc *Processor
	docs *documents.Service
	jobs repository.ProcessJobRepository
	ocr  *stubExtractor
}

func newHarness(t *testing.T, answer string, ext *stubExtractor) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	docs := documents.NewService(
		repository.NewDocumentRepository(store, nil),
		repository.NewDocumentFileRepository(store, nil),
		repository.NewHistoryRepository(store, nil),
		llm.CompleterFunc(func(context.Context, llm.Prompt) (string, error) { return answer, nil }),
		documents.Config{StorageDir: t.TempDir()},
		nil,
	)
	jobs := repository.NewProcessJobRepository(store, nil)
	proc := NewProcessor(nil, docs, jobs, NewOCRStage(docs, jobs, ext, nil), NewAnalyzeStage(docs, nil))
	return &harness{proc: proc, docs: docs, jobs: jobs, ocr: ext}
}

func TestProcessDocument_OCRThenAnalyze(t *testing.T) {
	h := newHarness(t, `Lease for a flat. Then suggest tags: ["lease", "housing"]`, &stubExtractor{text: "Tenant Name: Jane"})
	ctx := context.Background()

	up, err := h.docs.Upload(ctx, documents.UploadRequest{OwnerID: "alice", Filename: "scan.png", Data: []byte("png")})
	require.NoError(t, err)

	jobID, err := h.proc.ProcessDocument(ctx, up.Document.ID, false)
	require.NoError(t, err)

	doc, err := h.docs.Get(ctx, up.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tenant Name: Jane", doc.Text)
	assert.Equal(t, "Lease for a flat.", doc.Summary)
	assert.Equal(t, []string{"lease", "housing"}, doc.Tags)

	job, err := h.jobs.GetByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, job.Status)
	assert.Equal(t, "IMAGE", job.Format)
	assert.Equal(t, "image-ocr", job.Method)

	// An analyzed document is skipped unless forced.
	skipped, err := h.proc.ProcessDocument(ctx, up.Document.ID, false)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, skipped)
	assert.Equal(t, 1, h.ocr.calls)

	h.ocr.text = "Tenant Name: John"
	forced, err := h.proc.ProcessDocument(ctx, up.Document.ID, true)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, forced)
	assert.NotEqual(t, jobID, forced)
	assert.Equal(t, 2, h.ocr.calls)

	doc, err = h.docs.Get(ctx, up.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tenant Name: John", doc.Text)
}

func TestProcessDocument_ReusesStoredText(t *testing.T) {
	h := newHarness(t, `Short memo. Then suggest ["memo"]`, &stubExtractor{text: "unused"})
	ctx := context.Background()

	up, err := h.docs.Upload(ctx, documents.UploadRequest{OwnerID: "alice", Filename: "scan.png", Data: []byte("png")})
	require.NoError(t, err)
	require.NoError(t, h.docs.SetText(ctx, up.Document.ID, "memo text"))

	jobID, err := h.proc.ProcessDocument(ctx, up.Document.ID, false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, jobID)
	assert.Zero(t, h.ocr.calls)

	doc, err := h.docs.Get(ctx, up.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short memo.", doc.Summary)
	assert.Equal(t, []string{"memo"}, doc.Tags)
}

func TestProcessDocument_OCRFailureMarksJob(t *testing.T) {
	h := newHarness(t, "unused", &stubExtractor{err: errors.New("tesseract: exit status 1")})
	ctx := context.Background()

	up, err := h.docs.Upload(ctx, documents.UploadRequest{OwnerID: "alice", Filename: "scan.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	jobID, err := h.proc.ProcessDocument(ctx, up.Document.ID, false)
	require.Error(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	job, err := h.jobs.GetByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "tesseract")
}

func TestProcessDocument_Missing(t *testing.T) {
	h := newHarness(t, "unused", &stubExtractor{})
	jobID, err := h.proc.ProcessDocument(context.Background(), uuid.New(), false)
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, jobID)
}

func TestProcessDocument_LogsFailuresUnderErrorKey(t *testing.T) {
	h := newHarness(t, "unused", &stubExtractor{err: errors.New("tesseract: exit status 1")})
	ctx := context.Background()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	proc := NewProcessor(logger, h.docs, h.jobs, NewOCRStage(h.docs, h.jobs, h.ocr, logger), NewAnalyzeStage(h.docs, logger))

	up, err := h.docs.Upload(ctx, documents.UploadRequest{OwnerID: "alice", Filename: "scan.png", Data: []byte("png")})
	require.NoError(t, err)
	_, err = proc.ProcessDocument(ctx, up.Document.ID, false)
	require.Error(t, err)
	_, err = proc.ProcessDocument(ctx, uuid.New(), false)
	require.Error(t, err)

	var failures int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.NotContains(t, rec, "err", line)
		if rec["level"] == "ERROR" {
			failures++
			assert.Contains(t, rec, "error", line)
		}
	}
	assert.Equal(t, 2, failures)
}
