package repository

import (
	"context"
	"errors"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

type DocumentFileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error)
	GetByOwnerAndHash(ctx context.Context, ownerID string, hash []byte) (*entity.DocumentFile, error)
	Create(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error)
	UpsertByHash(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error)
}

type documentFileRepo struct {
	store  *Store
	logger *slog.Logger
}

func NewDocumentFileRepository(store *Store, logger *slog.Logger) DocumentFileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentFileRepo{
		store:  store,
		logger: logger,
	}
}

var fileColumns = []string{
	"id", "owner_id", "source_path", "storage_path", "content_hash",
	"filename", "file_ext", "file_size", "mime_type", "uploaded_at",
}

func (r *documentFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	return r.getOne(ctx, entsql.EQ("id", id))
}

func (r *documentFileRepo) GetByOwnerAndHash(ctx context.Context, ownerID string, hash []byte) (*entity.DocumentFile, error) {
	return r.getOne(ctx, entsql.And(entsql.EQ("owner_id", ownerID), entsql.EQ("content_hash", hash)))
}

func (r *documentFileRepo) getOne(ctx context.Context, p *entsql.Predicate) (*entity.DocumentFile, error) {
	sel := r.store.qb().Select(fileColumns...).
		From(r.store.qb().Table("document_files")).
		Where(p)
	query, args := sel.Query()
	var f entity.DocumentFile
	err := r.store.DB().QueryRowContext(ctx, query, args...).Scan(
		&f.ID, &f.OwnerID, &f.SourcePath, &f.StoragePath, &f.ContentHash,
		&f.Filename, &f.FileExt, &f.FileSize, &f.MimeType, &f.UploadedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *documentFileRepo) Create(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, error) {
	out := *f
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	out.UploadedAt = utc(out.UploadedAt)
	ins := r.store.qb().Insert("document_files").
		Columns(fileColumns...).
		Values(out.ID, out.OwnerID, out.SourcePath, out.StoragePath, out.ContentHash,
			out.Filename, out.FileExt, out.FileSize, out.MimeType, out.UploadedAt)
	if _, err := exec(ctx, r.store.DB(), ins); err != nil {
		r.logger.Error("failed to create document file", "owner_id", f.OwnerID, "source_path", f.SourcePath, "filename", f.Filename, "error", err)
		return nil, err
	}
	return &out, nil
}

// UpsertByHash returns the existing row for (owner, hash) when present. The
// boolean reports whether the file was already known.
func (r *documentFileRepo) UpsertByHash(ctx context.Context, f *entity.DocumentFile) (*entity.DocumentFile, bool, error) {
	existing, err := r.GetByOwnerAndHash(ctx, f.OwnerID, f.ContentHash)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	row, err := r.Create(ctx, f)
	if err != nil {
		r.logger.Error("failed to upsert document file by hash", "owner_id", f.OwnerID, "source_path", f.SourcePath, "filename", f.Filename, "error", err)
		return nil, false, err
	}
	return row, false, nil
}
