package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *entity.Template) (*entity.Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Template, error)
	List(ctx context.Context, ownerID string) ([]*entity.Template, error)
	Update(ctx context.Context, t *entity.Template) (*entity.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewTemplateRepository(store *Store, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepository{
		store:  store,
		logger: logger,
	}
}

var templateColumns = []string{"id", "owner_id", "title", "fields", "source_text", "created_at", "updated_at"}

func (r *templateRepository) Create(ctx context.Context, t *entity.Template) (*entity.Template, error) {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := *t
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	now := utc(time.Now())
	out.CreatedAt, out.UpdatedAt = now, now

	ins := r.store.qb().Insert("templates").
		Columns(templateColumns...).
		Values(out.ID, out.OwnerID, out.Title, string(fields), out.SourceText, out.CreatedAt, out.UpdatedAt)
	if _, err := exec(ctx, r.store.DB(), ins); err != nil {
		r.logger.Error("failed to create template", "owner_id", t.OwnerID, "title", t.Title, "error", err)
		return nil, err
	}
	return &out, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Template, error) {
	sel := r.store.qb().Select(templateColumns...).
		From(r.store.qb().Table("templates")).
		Where(entsql.EQ("id", id))
	query, args := sel.Query()
	t, err := scanTemplate(r.store.DB().QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *templateRepository) List(ctx context.Context, ownerID string) ([]*entity.Template, error) {
	sel := r.store.qb().Select(templateColumns...).
		From(r.store.qb().Table("templates")).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))
	if ownerID != "" {
		sel.Where(entsql.EQ("owner_id", ownerID))
	}
	query, args := sel.Query()
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list templates", "owner_id", ownerID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *templateRepository) Update(ctx context.Context, t *entity.Template) (*entity.Template, error) {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	now := utc(time.Now())
	upd := r.store.qb().Update("templates").
		Set("title", t.Title).
		Set("fields", string(fields)).
		Set("updated_at", now).
		Where(entsql.EQ("id", t.ID))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.logger.Error("failed to update template", "template_id", t.ID, "error", err)
		return nil, err
	}
	return r.GetByID(ctx, t.ID)
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	del := r.store.qb().Delete("templates").Where(entsql.EQ("id", id))
	if err := execOne(ctx, r.store.DB(), del); err != nil {
		r.logger.Error("failed to delete template", "template_id", id, "error", err)
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*entity.Template, error) {
	var (
		t      entity.Template
		fields string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &fields, &t.SourceText, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var ff []extract.TemplateField
	if err := json.Unmarshal([]byte(fields), &ff); err != nil {
		return nil, fmt.Errorf("decode template fields: %w", err)
	}
	t.Fields = ff
	return &t, nil
}
