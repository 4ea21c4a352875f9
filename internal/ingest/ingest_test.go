package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
)

// memUploader deduplicates on content hash like the real document service.
type memUploader struct {
	mu     sync.Mutex
	byHash map[string]*documents.UploadResult
}

func (m *memUploader) Upload(_ context.Context, req documents.UploadRequest) (*documents.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byHash == nil {
		m.byHash = map[string]*documents.UploadResult{}
	}
	sum := sha256.Sum256(req.Data)
	key := req.OwnerID + "/" + hex.EncodeToString(sum[:])
	if r, ok := m.byHash[key]; ok {
		dup := *r
		dup.Deduplicated = true
		return &dup, nil
	}
	r := &documents.UploadResult{
		Document: &entity.Document{ID: uuid.New(), OwnerID: req.OwnerID},
		File:     &entity.DocumentFile{ID: uuid.New(), FileExt: filepath.Ext(req.Filename)[1:], UploadedAt: time.Now()},
		HashHex:  hex.EncodeToString(sum[:]),
	}
	m.byHash[key] = r
	return r, nil
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	ing := NewFSIngestor(&memUploader{}, nil)
	ctx := context.Background()

	writeFile(t, filepath.Join(dir, "lease.pdf"), "%PDF-1.4")
	r, err := ing.IngestPath(ctx, "alice", filepath.Join(dir, "lease.pdf"))
	require.NoError(t, err)
	assert.False(t, r.Deduplicated)
	assert.Equal(t, "pdf", r.FileExt)
	assert.NotEmpty(t, r.DocumentID)

	again, err := ing.IngestPath(ctx, "alice", filepath.Join(dir, "lease.pdf"))
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, r.DocumentID, again.DocumentID)

	writeFile(t, filepath.Join(dir, "notes.docx"), "x")
	_, err = ing.IngestPath(ctx, "alice", filepath.Join(dir, "notes.docx"))
	assert.Error(t, err)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "sub", "copy.txt"), "b")
	writeFile(t, filepath.Join(dir, "skip.docx"), "c")
	writeFile(t, filepath.Join(dir, ".hidden", "d.pdf"), "d")

	ing := NewFSIngestor(&memUploader{}, nil)
	results, stats, err := ing.IngestDirectory(context.Background(), "alice", dir, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(0), stats.Failed)

	_, _, err = ing.IngestDirectory(context.Background(), "alice", " ", true)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/a/.git"))
	assert.False(t, IsHidden("/a/b.pdf"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcher_EmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "existing.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, filepath.Join(dir, "existing.pdf"), next())

	writeFile(t, filepath.Join(dir, "ignored.docx"), "x")
	writeFile(t, filepath.Join(dir, "new.png"), "x")
	assert.Equal(t, filepath.Join(dir, "new.png"), next())

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-events
		return !ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
