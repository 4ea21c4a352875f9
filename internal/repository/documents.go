package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error
	SetText(ctx context.Context, id uuid.UUID, text string) error
	SetAnalysis(ctx context.Context, id uuid.UUID, summary string, tags []string) error
	SetSignature(ctx context.Context, id uuid.UUID, signature string, signedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListTags(ctx context.Context, ownerID string) ([]string, error)
}

type documentRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewDocumentRepository(store *Store, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{
		store:  store,
		logger: logger,
	}
}

var documentColumns = []string{
	"id", "owner_id", "shared_with", "template_id", "file_id", "title", "status",
	"content", "body_text", "summary", "signature", "signed_at", "created_at", "updated_at",
}

func (r *documentRepository) Create(ctx context.Context, d *entity.Document) (*entity.Document, error) {
	shared, content, err := encodeDocumentJSON(d)
	if err != nil {
		return nil, err
	}
	out := *d
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	now := utc(time.Now())
	out.CreatedAt, out.UpdatedAt = now, now
	out.Tags = append([]string(nil), d.Tags...)

	err = r.store.withTx(ctx, func(tx *sql.Tx) error {
		ins := r.store.qb().Insert("documents").
			Columns(documentColumns...).
			Values(out.ID, out.OwnerID, shared, nullUUID(out.TemplateID), nullUUID(out.FileID), out.Title,
				string(out.Status), content, out.Text, out.Summary, out.Signature, nullTime(out.SignedAt),
				out.CreatedAt, out.UpdatedAt)
		if _, err := exec(ctx, tx, ins); err != nil {
			return err
		}
		return r.writeTags(ctx, tx, out.ID, out.Tags)
	})
	if err != nil {
		r.logger.Error("failed to create document", "owner_id", d.OwnerID, "title", d.Title, "error", err)
		return nil, err
	}
	return &out, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	sel := r.store.qb().Select(documentColumns...).
		From(r.store.qb().Table("documents")).
		Where(entsql.EQ("id", id))
	query, args := sel.Query()
	d, err := scanDocument(r.store.DB().QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.loadTags(ctx, []*entity.Document{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns documents newest first. Offset applies only with a Limit.
func (r *documentRepository) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, error) {
	sel := r.store.qb().Select(documentColumns...).
		From(r.store.qb().Table("documents")).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))
	var preds []*entsql.Predicate
	if f.OwnerID != "" {
		preds = append(preds, entsql.EQ("owner_id", f.OwnerID))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if f.FileID != uuid.Nil {
		preds = append(preds, entsql.EQ("file_id", f.FileID))
	}
	if f.Tag != "" {
		tagged := r.store.qb().Select("document_id").
			From(r.store.qb().Table("document_tags")).
			Where(entsql.EQ("tag", f.Tag))
		preds = append(preds, entsql.In("id", tagged))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
		if f.Offset > 0 {
			sel.Offset(f.Offset)
		}
	}

	query, args := sel.Query()
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list documents", "owner_id", f.OwnerID, "error", err)
		return nil, err
	}
	var out []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := r.loadTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	upd := r.store.qb().Update("documents").
		Set("status", string(status)).
		Set("updated_at", utc(time.Now())).
		Where(entsql.EQ("id", id))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.logger.Error("failed to update document status", "document_id", id, "status", status, "error", err)
		return err
	}
	return nil
}

func (r *documentRepository) SetText(ctx context.Context, id uuid.UUID, text string) error {
	upd := r.store.qb().Update("documents").
		Set("body_text", text).
		Set("updated_at", utc(time.Now())).
		Where(entsql.EQ("id", id))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.logger.Error("failed to set document text", "document_id", id, "error", err)
		return err
	}
	return nil
}

// SetAnalysis stores the summary and replaces the tag list in one transaction.
func (r *documentRepository) SetAnalysis(ctx context.Context, id uuid.UUID, summary string, tags []string) error {
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		upd := r.store.qb().Update("documents").
			Set("summary", summary).
			Set("updated_at", utc(time.Now())).
			Where(entsql.EQ("id", id))
		if err := execOne(ctx, tx, upd); err != nil {
			return err
		}
		del := r.store.qb().Delete("document_tags").Where(entsql.EQ("document_id", id))
		if _, err := exec(ctx, tx, del); err != nil {
			return err
		}
		return r.writeTags(ctx, tx, id, tags)
	})
	if err != nil {
		r.logger.Error("failed to set document analysis", "document_id", id, "error", err)
		return err
	}
	return nil
}

// SetSignature stores the signature image and moves the document to Signed.
func (r *documentRepository) SetSignature(ctx context.Context, id uuid.UUID, signature string, signedAt time.Time) error {
	at := utc(signedAt)
	upd := r.store.qb().Update("documents").
		Set("signature", signature).
		Set("signed_at", at).
		Set("status", string(constants.DocumentSigned)).
		Set("updated_at", at).
		Where(entsql.EQ("id", id))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.logger.Error("failed to sign document", "document_id", id, "error", err)
		return err
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	del := r.store.qb().Delete("documents").Where(entsql.EQ("id", id))
	if err := execOne(ctx, r.store.DB(), del); err != nil {
		r.logger.Error("failed to delete document", "document_id", id, "error", err)
		return err
	}
	return nil
}

// ListTags returns the distinct tags in use, sorted. An empty ownerID spans
// every owner.
func (r *documentRepository) ListTags(ctx context.Context, ownerID string) ([]string, error) {
	sel := r.store.qb().Select("tag").Distinct().
		From(r.store.qb().Table("document_tags")).
		OrderBy("tag")
	if ownerID != "" {
		owned := r.store.qb().Select("id").
			From(r.store.qb().Table("documents")).
			Where(entsql.EQ("owner_id", ownerID))
		sel.Where(entsql.In("document_id", owned))
	}
	query, args := sel.Query()
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list tags", "owner_id", ownerID, "error", err)
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *documentRepository) writeTags(ctx context.Context, q querier, id uuid.UUID, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	ins := r.store.qb().Insert("document_tags").Columns("document_id", "position", "tag")
	for i, t := range tags {
		ins.Values(id, i, t)
	}
	_, err := exec(ctx, q, ins)
	return err
}

func (r *documentRepository) loadTags(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*entity.Document, len(docs))
	ids := make([]any, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	sel := r.store.qb().Select("document_id", "tag").
		From(r.store.qb().Table("document_tags")).
		Where(entsql.In("document_id", ids...)).
		OrderBy("document_id", "position")
	query, args := sel.Query()
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			docID uuid.UUID
			tag   string
		)
		if err := rows.Scan(&docID, &tag); err != nil {
			return err
		}
		if d, ok := byID[docID]; ok {
			d.Tags = append(d.Tags, tag)
		}
	}
	return rows.Err()
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		d                  entity.Document
		shared, content    string
		status             string
		templateID, fileID uuid.NullUUID
		signedAt           entsql.NullTime
	)
	err := row.Scan(&d.ID, &d.OwnerID, &shared, &templateID, &fileID, &d.Title, &status,
		&content, &d.Text, &d.Summary, &d.Signature, &signedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = constants.DocumentStatus(status)
	if err := json.Unmarshal([]byte(shared), &d.SharedWith); err != nil {
		return nil, fmt.Errorf("decode shared_with: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &d.Content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if templateID.Valid {
		id := templateID.UUID
		d.TemplateID = &id
	}
	if fileID.Valid {
		id := fileID.UUID
		d.FileID = &id
	}
	if signedAt.Valid {
		t := signedAt.Time
		d.SignedAt = &t
	}
	return &d, nil
}

func encodeDocumentJSON(d *entity.Document) (shared, content string, err error) {
	sw := d.SharedWith
	if sw == nil {
		sw = []string{}
	}
	b, err := json.Marshal(sw)
	if err != nil {
		return "", "", fmt.Errorf("encode shared_with: %w", err)
	}
	c := d.Content
	if c == nil {
		c = map[string]string{}
	}
	cb, err := json.Marshal(c)
	if err != nil {
		return "", "", fmt.Errorf("encode content: %w", err)
	}
	return string(b), string(cb), nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) entsql.NullTime {
	if t == nil {
		return entsql.NullTime{}
	}
	return entsql.NullTime{Time: utc(*t), Valid: true}
}
