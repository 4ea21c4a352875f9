package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(context.Background(), Config{DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpen_SelectsDialect(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, "sqlite3", s.Dialect())
	assert.NoError(t, s.HealthCheck(context.Background(), time.Second))
	// Migrations are idempotent.
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestTemplateRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestStore(t), nil)

	created, err := repo.Create(ctx, &entity.Template{
		OwnerID: "alice",
		Title:   "Rental Agreement",
		Fields: []extract.TemplateField{
			{Label: "Tenant Name", Type: "text", Name: "tenant_name"},
			{Label: "Start Date", Type: "date", Name: "start_date"},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rental Agreement", got.Title)
	assert.Equal(t, created.Fields, got.Fields)

	got.Title = "Lease"
	got.Fields = got.Fields[:1]
	updated, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Lease", updated.Title)
	assert.Len(t, updated.Fields, 1)

	_, err = repo.Create(ctx, &entity.Template{OwnerID: "bob", Title: "Other", Fields: []extract.TemplateField{{Label: "X", Type: "text", Name: "x"}}})
	require.NoError(t, err)

	mine, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), common.ErrNotFound)
}

func TestDocumentRepository_TagsAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestStore(t), nil)

	a, err := repo.Create(ctx, &entity.Document{
		OwnerID:    "alice",
		SharedWith: []string{"bob"},
		Title:      "Lease",
		Status:     constants.DocumentAwaitingSignature,
		Content:    map[string]string{"tenant_name": "Jane"},
		Tags:       []string{"rental", "legal"},
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &entity.Document{
		OwnerID: "alice",
		Title:   "Invoice",
		Status:  constants.DocumentUploaded,
		Tags:    []string{"finance"},
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &entity.Document{OwnerID: "carol", Title: "Memo", Status: constants.DocumentUploaded})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rental", "legal"}, got.Tags)
	assert.Equal(t, []string{"bob"}, got.SharedWith)
	assert.Equal(t, "Jane", got.Content["tenant_name"])
	assert.Nil(t, got.TemplateID)

	byTag, err := repo.List(ctx, entity.DocumentFilter{Tag: "legal"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, a.ID, byTag[0].ID)

	byStatus, err := repo.List(ctx, entity.DocumentFilter{OwnerID: "alice", Status: constants.DocumentUploaded})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Invoice", byStatus[0].Title)

	limited, err := repo.List(ctx, entity.DocumentFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	tags, err := repo.ListTags(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "legal", "rental"}, tags)

	none, err := repo.ListTags(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestStore(t), nil)

	d, err := repo.Create(ctx, &entity.Document{OwnerID: "alice", Title: "NDA", Status: constants.DocumentAwaitingSignature, Tags: []string{"old"}})
	require.NoError(t, err)

	require.NoError(t, repo.SetText(ctx, d.ID, "body"))
	require.NoError(t, repo.SetAnalysis(ctx, d.ID, "A short NDA.", []string{"legal", "nda"}))
	signedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetSignature(ctx, d.ID, "data:image/png;base64,AAAA", signedAt))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Text)
	assert.Equal(t, "A short NDA.", got.Summary)
	assert.Equal(t, []string{"legal", "nda"}, got.Tags)
	assert.Equal(t, constants.DocumentSigned, got.Status)
	require.NotNil(t, got.SignedAt)
	assert.True(t, signedAt.Equal(*got.SignedAt))
	assert.True(t, got.IsSigned())

	require.NoError(t, repo.UpdateStatus(ctx, d.ID, constants.DocumentArchived))
	got, err = repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentArchived, got.Status)

	missing := uuid.New()
	assert.ErrorIs(t, repo.UpdateStatus(ctx, missing, constants.DocumentSigned), common.ErrNotFound)
	assert.ErrorIs(t, repo.SetAnalysis(ctx, missing, "x", nil), common.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDocumentFileRepository_UpsertByHash(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentFileRepository(newTestStore(t), nil)

	f := &entity.DocumentFile{
		OwnerID:     "alice",
		SourcePath:  "/in/lease.pdf",
		StoragePath: "/data/lease.pdf",
		ContentHash: []byte{0x01, 0x02, 0x03},
		Filename:    "lease.pdf",
		FileExt:     "pdf",
		FileSize:    42,
		MimeType:    "application/pdf",
		UploadedAt:  time.Now(),
	}
	first, existed, err := repo.UpsertByHash(ctx, f)
	require.NoError(t, err)
	assert.False(t, existed)

	second, existed, err := repo.UpsertByHash(ctx, f)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)

	other := *f
	other.OwnerID = "bob"
	third, existed, err := repo.UpsertByHash(ctx, &other)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, first.ID, third.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "lease.pdf", got.Filename)
	assert.Equal(t, f.ContentHash, got.ContentHash)
}

func TestHistoryAndJobs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docs := NewDocumentRepository(store, nil)
	history := NewHistoryRepository(store, nil)
	jobs := NewProcessJobRepository(store, nil)

	d, err := docs.Create(ctx, &entity.Document{OwnerID: "alice", Title: "Scan", Status: constants.DocumentUploaded})
	require.NoError(t, err)

	_, err = history.Append(ctx, d.ID, constants.ActionUploaded, "alice", "scan.pdf")
	require.NoError(t, err)
	_, err = history.Append(ctx, d.ID, constants.ActionAnalyzed, "", "")
	require.NoError(t, err)
	entries, err := history.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, constants.ActionUploaded, entries[0].Action)
	assert.Equal(t, constants.ActionAnalyzed, entries[1].Action)

	job, err := jobs.Start(ctx, d.ID, constants.PDF)
	require.NoError(t, err)
	require.NoError(t, jobs.MarkOCR(ctx, job.ID, "pdf-text", 0.9))
	require.NoError(t, jobs.FinishOK(ctx, job.ID))
	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, got.Status)
	assert.Equal(t, "pdf-text", got.Method)
	assert.NotNil(t, got.FinishedAt)

	failed, err := jobs.Start(ctx, d.ID, constants.IMAGE)
	require.NoError(t, err)
	require.NoError(t, jobs.FinishFailure(ctx, failed.ID, "tesseract missing"))
	got, err = jobs.GetByID(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "tesseract missing", got.ErrorMessage)

	// Deleting the document cascades to its history and jobs.
	require.NoError(t, docs.Delete(ctx, d.ID))
	entries, err = history.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
