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

type ProcessJobRepository interface {
	Start(ctx context.Context, documentID uuid.UUID, format constants.FileFormat) (*entity.ProcessJob, error)
	MarkOCR(ctx context.Context, jobID uuid.UUID, method string, confidence float32) error
	FinishOK(ctx context.Context, jobID uuid.UUID) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ProcessJob, error)
}

type processJobRepo struct {
	store *Store
	log   *slog.Logger
}

func NewProcessJobRepository(store *Store, log *slog.Logger) ProcessJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &processJobRepo{store: store, log: log}
}

func (r *processJobRepo) Start(ctx context.Context, documentID uuid.UUID, format constants.FileFormat) (*entity.ProcessJob, error) {
	job := &entity.ProcessJob{
		ID:         uuid.New(),
		DocumentID: documentID,
		Format:     string(format),
		Status:     constants.JobStatusRunning,
		StartedAt:  utc(time.Now()),
	}
	ins := r.store.qb().Insert("process_jobs").
		Columns("id", "document_id", "format", "status", "started_at").
		Values(job.ID, job.DocumentID, job.Format, string(job.Status), job.StartedAt)
	if _, err := exec(ctx, r.store.DB(), ins); err != nil {
		r.log.Error("process_job start failed", "document_id", documentID, "error", err)
		return nil, err
	}
	r.log.Info("process_job started", "job_id", job.ID, "document_id", documentID, "format", format)
	return job, nil
}

func (r *processJobRepo) MarkOCR(ctx context.Context, jobID uuid.UUID, method string, confidence float32) error {
	upd := r.store.qb().Update("process_jobs").
		Set("status", string(constants.JobStatusOCROK)).
		Set("method", method).
		Set("confidence", confidence).
		Where(entsql.EQ("id", jobID))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.log.Error("process_job mark(OCR_OK) failed", "job_id", jobID, "error", err)
		return err
	}
	return nil
}

func (r *processJobRepo) FinishOK(ctx context.Context, jobID uuid.UUID) error {
	upd := r.store.qb().Update("process_jobs").
		Set("status", string(constants.JobStatusDone)).
		Set("finished_at", utc(time.Now())).
		Where(entsql.EQ("id", jobID))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.log.Error("process_job finish(OK) failed", "job_id", jobID, "error", err)
		return err
	}
	r.log.Info("process_job finished (ANALYZED_OK)", "job_id", jobID)
	return nil
}

func (r *processJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	upd := r.store.qb().Update("process_jobs").
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", utc(time.Now())).
		Where(entsql.EQ("id", jobID))
	if err := execOne(ctx, r.store.DB(), upd); err != nil {
		r.log.Error("process_job finish(FAILED) failed", "job_id", jobID, "error", err)
		return err
	}
	r.log.Info("process_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *processJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ProcessJob, error) {
	sel := r.store.qb().Select("id", "document_id", "format", "status", "method", "confidence", "error_message", "started_at", "finished_at").
		From(r.store.qb().Table("process_jobs")).
		Where(entsql.EQ("id", jobID))
	query, args := sel.Query()
	var (
		j        entity.ProcessJob
		status   string
		finished entsql.NullTime
	)
	err := r.store.DB().QueryRowContext(ctx, query, args...).Scan(
		&j.ID, &j.DocumentID, &j.Format, &status, &j.Method, &j.Confidence, &j.ErrorMessage, &j.StartedAt, &finished,
	)
	if err != nil {
		return nil, notFound(err)
	}
	j.Status = constants.JobStatus(status)
	if finished.Valid {
		t := finished.Time
		j.FinishedAt = &t
	}
	return &j, nil
}
