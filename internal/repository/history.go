package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

type HistoryRepository interface {
	Append(ctx context.Context, documentID uuid.UUID, action constants.HistoryAction, actor, detail string) (*entity.HistoryEntry, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.HistoryEntry, error)
}

type historyRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewHistoryRepository(store *Store, logger *slog.Logger) HistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &historyRepository{
		store:  store,
		logger: logger,
	}
}

func (r *historyRepository) Append(ctx context.Context, documentID uuid.UUID, action constants.HistoryAction, actor, detail string) (*entity.HistoryEntry, error) {
	e := &entity.HistoryEntry{
		ID:         uuid.New(),
		DocumentID: documentID,
		Action:     action,
		Actor:      actor,
		Detail:     detail,
		CreatedAt:  utc(time.Now()),
	}
	ins := r.store.qb().Insert("document_history").
		Columns("id", "document_id", "action", "actor", "detail", "created_at").
		Values(e.ID, e.DocumentID, string(e.Action), e.Actor, e.Detail, e.CreatedAt)
	if _, err := exec(ctx, r.store.DB(), ins); err != nil {
		r.logger.Error("failed to append history", "document_id", documentID, "action", action, "error", err)
		return nil, err
	}
	return e, nil
}

// ListByDocument returns entries oldest first.
func (r *historyRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.HistoryEntry, error) {
	sel := r.store.qb().Select("id", "document_id", "action", "actor", "detail", "created_at").
		From(r.store.qb().Table("document_history")).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("created_at", "id")
	query, args := sel.Query()
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list history", "document_id", documentID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.HistoryEntry
	for rows.Next() {
		var (
			e      entity.HistoryEntry
			action string
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &action, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = constants.HistoryAction(action)
		out = append(out, &e)
	}
	return out, rows.Err()
}
