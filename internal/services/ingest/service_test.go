package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/ingest"
)

type fakeIngestor struct {
	result  ingest.IngestionResult
	results []ingest.IngestionResult
	err     error
}

func (f *fakeIngestor) IngestPath(context.Context, string, string) (ingest.IngestionResult, error) {
	return f.result, f.err
}

func (f *fakeIngestor) IngestDirectory(context.Context, string, string, bool) ([]ingest.IngestionResult, ingest.DirStats, error) {
	return f.results, ingest.DirStats{Matched: uint32(len(f.results))}, f.err
}

type fakeQueue struct {
	jobs []async.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

func TestIngestFile_Enqueues(t *testing.T) {
	docID := uuid.New()
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{result: ingest.IngestionResult{DocumentID: docID.String()}}, q, nil)

	r, err := svc.IngestFile(context.Background(), FileIngestRequest{OwnerID: "alice", Path: "/scans/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, docID.String(), r.DocumentID)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, docID, q.jobs[0].DocumentID)
	assert.False(t, q.jobs[0].Force)
}

func TestIngestFile_SkipsDuplicates(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{result: ingest.IngestionResult{DocumentID: uuid.NewString(), Deduplicated: true}}, q, nil)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{OwnerID: "alice", Path: "/scans/a.pdf", SkipDuplicates: true})
	require.NoError(t, err)
	assert.Empty(t, q.jobs)

	_, err = svc.IngestFile(context.Background(), FileIngestRequest{OwnerID: "alice", Path: "/scans/a.pdf"})
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.True(t, q.jobs[0].Force)
}

func TestIngestFile_Errors(t *testing.T) {
	svc := NewService(&fakeIngestor{err: errors.New("unsupported")}, &fakeQueue{}, nil)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{Path: "/x.pdf"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.IngestFile(context.Background(), FileIngestRequest{OwnerID: "alice", Path: "/x.docx"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestIngestDirectory_EnqueuesSuccesses(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{results: []ingest.IngestionResult{
		{DocumentID: uuid.NewString()},
		{SourcePath: "/bad", Err: "read failed"},
		{DocumentID: "not-a-uuid"},
	}}, q, nil)

	res, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{OwnerID: "alice", RootPath: "/scans"})
	require.NoError(t, err)
	assert.Len(t, q.jobs, 1)
	assert.Equal(t, "read failed", res.Results[1].Err)
	assert.NotEmpty(t, res.Results[2].Err)
}

func TestWatch_IngestsUntilClosed(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{result: ingest.IngestionResult{DocumentID: uuid.NewString()}}, q, nil)
	paths := make(chan string, 2)
	paths <- "/scans/a.pdf"
	paths <- "/scans/b.pdf"
	close(paths)

	svc.Watch(context.Background(), "alice", paths, false)
	assert.Len(t, q.jobs, 2)
}
