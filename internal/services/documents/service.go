package documents

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/repository"
)

// Config tunes the document service.
type Config struct {
	StorageDir string
	TagMarker  string
	Retry      llm.RetryConfig
}

// Service handles document business logic.
type Service struct {
	docs      repository.DocumentRepository
	files     repository.DocumentFileRepository
	history   repository.HistoryRepository
	completer llm.Completer
	segmenter extract.Segmenter
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new document service.
func NewService(
	docs repository.DocumentRepository,
	files repository.DocumentFileRepository,
	history repository.HistoryRepository,
	completer llm.Completer,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:      docs,
		files:     files,
		history:   history,
		completer: completer,
		segmenter: extract.NewSegmenter(cfg.TagMarker),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadRequest carries one uploaded or scanned file.
type UploadRequest struct {
	OwnerID    string
	Filename   string
	SourcePath string // original location for scanned files; empty for HTTP uploads
	Data       []byte
}

// UploadResult is the stored document and whether its bytes were seen before.
type UploadResult struct {
	Document     *entity.Document
	File         *entity.DocumentFile
	Deduplicated bool
	HashHex      string
}

// Upload stores the file under the configured directory and creates an
// Uploaded document for it. A file whose hash the owner already uploaded
// returns the existing document.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	validator := common.NewValidator()
	validator.Field("owner_id", req.OwnerID, common.Required)
	validator.Field("filename", req.Filename, common.Required, common.MaxLength(255))
	validator.Field("data", req.Data, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}
	if len(req.Data) > constants.MaxUploadBytes {
		return nil, common.NewAppError("UPLOAD_TOO_LARGE",
			fmt.Sprintf("file exceeds %d bytes", constants.MaxUploadBytes), common.ErrInvalidInput)
	}

	filename := filepath.Base(strings.TrimSpace(req.Filename))
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if !constants.IsAllowedExt(ext) {
		s.logger.Warn("documents.upload.unsupported", "filename", filename, "ext", ext)
		return nil, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported extension %q", ext), common.ErrInvalidInput)
	}

	sum := sha256.Sum256(req.Data)
	hashHex := hex.EncodeToString(sum[:])

	if existing, err := s.files.GetByOwnerAndHash(ctx, req.OwnerID, sum[:]); err == nil {
		doc, err := s.documentForFile(ctx, existing)
		if err != nil {
			return nil, err
		}
		s.logger.Info("documents.upload.dedup", "owner_id", req.OwnerID, "file_id", existing.ID, "document_id", doc.ID)
		return &UploadResult{Document: doc, File: existing, Deduplicated: true, HashHex: hashHex}, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, common.WrapError(err, "lookup file")
	}

	storagePath, err := s.store(req.OwnerID, hashHex, ext, req.Data)
	if err != nil {
		s.logger.Error("documents.upload.store_failed", "owner_id", req.OwnerID, "filename", filename, "error", err)
		return nil, common.NewAppError("STORAGE_ERROR", "store file", err)
	}

	sourcePath := req.SourcePath
	if sourcePath == "" {
		sourcePath = filename
	}
	file, dedup, err := s.files.UpsertByHash(ctx, &entity.DocumentFile{
		OwnerID:     req.OwnerID,
		SourcePath:  sourcePath,
		StoragePath: storagePath,
		ContentHash: sum[:],
		Filename:    filename,
		FileExt:     ext,
		FileSize:    len(req.Data),
		MimeType:    constants.MimeType(ext),
		UploadedAt:  s.now(),
	})
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "save file", errors.Join(common.ErrDatabase, err))
	}
	if dedup {
		// Lost a race with a concurrent upload of the same bytes.
		doc, err := s.documentForFile(ctx, file)
		if err != nil {
			return nil, err
		}
		return &UploadResult{Document: doc, File: file, Deduplicated: true, HashHex: hashHex}, nil
	}

	fileID := file.ID
	doc, err := s.docs.Create(ctx, &entity.Document{
		OwnerID: req.OwnerID,
		FileID:  &fileID,
		Title:   strings.TrimSuffix(filename, filepath.Ext(filename)),
		Status:  constants.DocumentUploaded,
	})
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "create document", errors.Join(common.ErrDatabase, err))
	}
	s.record(ctx, doc.ID, constants.ActionUploaded, req.OwnerID, filename)

	s.logger.Info("documents.upload.ok",
		"owner_id", req.OwnerID,
		"document_id", doc.ID,
		"file_id", file.ID,
		"size", len(req.Data),
	)
	return &UploadResult{Document: doc, File: file, HashHex: hashHex}, nil
}

func (s *Service) store(ownerID, hashHex, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.StorageDir, safeSegment(ownerID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, hashHex+"."+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) documentForFile(ctx context.Context, f *entity.DocumentFile) (*entity.Document, error) {
	docs, err := s.docs.List(ctx, entity.DocumentFilter{FileID: f.ID, Limit: 1})
	if err != nil {
		return nil, common.WrapError(err, "find document for file")
	}
	if len(docs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "no document for file "+f.ID.String(), common.ErrNotFound)
	}
	return docs[0], nil
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return s.docs.GetByID(ctx, id)
}

// List returns documents matching filter.
func (s *Service) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, error) {
	if filter.Status != "" {
		validator := common.NewValidator()
		validator.Field("status", string(filter.Status), common.OneOf(constants.DocumentStatusesAsStrings()...))
		if err := common.ValidateAndReturnError(validator); err != nil {
			return nil, err
		}
	}
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	return s.docs.List(ctx, filter)
}

// Analyze asks the completion service for a summary and suggested tags and
// stores both. A reply without a tag list still stores the summary with no
// tags; a malformed or invalid tag list is retried with a stricter prompt.
func (s *Service) Analyze(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	text := analysisText(doc)
	if text == "" {
		return nil, common.NewAppError("NO_TEXT", "document has no text to analyze", common.ErrFailedPrecondition)
	}

	start := s.now()
	analysis, attempt, err := Summarize(ctx, s.completer, text, s.segmenter, s.cfg.Retry, s.logger)
	if err != nil {
		s.logger.Error("documents.analyze.failed",
			"document_id", id,
			"kind", extract.KindOf(err),
			"attempts", attempt.Number,
			"error", err,
		)
		return nil, err
	}

	tags := analysis.Tags
	if tags == nil {
		tags = []string{}
	}
	if err := s.docs.SetAnalysis(ctx, id, analysis.Summary, tags); err != nil {
		return nil, common.WrapError(err, "store analysis")
	}
	s.record(ctx, id, constants.ActionAnalyzed, "", strings.Join(tags, ","))

	s.logger.Info("documents.analyze.ok",
		"document_id", id,
		"tags", len(tags),
		"attempts", attempt.Number,
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)
	return s.docs.GetByID(ctx, id)
}

// Summarize asks for a summary with suggested tags and splits the answer with
// seg. A reply without a tag list yields the summary and no tags; a malformed
// or invalid tag list is retried with the stricter prompt.
func Summarize(
	ctx context.Context,
	completer llm.Completer,
	text string,
	seg extract.Segmenter,
	retry llm.RetryConfig,
	logger *slog.Logger,
) (extract.Analysis, llm.Attempt, error) {
	prompts := []llm.Prompt{
		llm.BuildSummaryPrompt(text, seg.Marker),
		llm.BuildStrictSummaryPrompt(text, seg.Marker),
	}
	return llm.CompleteAndParse(ctx, completer, prompts,
		func(raw string) (extract.Analysis, error) {
			a, err := extract.Summarize(raw, seg)
			if errors.Is(err, extract.ErrNoBlockFound) {
				return a, nil
			}
			return a, err
		},
		retry, logger)
}

// analysisText prefers extracted text and falls back to the filled-in
// template values.
func analysisText(d *entity.Document) string {
	if t := strings.TrimSpace(d.Text); t != "" {
		return t
	}
	if len(d.Content) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d.Content))
	for k := range d.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(d.Title)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, d.Content[k])
	}
	return b.String()
}

const signaturePrefix = "data:image/png;base64,"

// Sign stores a PNG data URL signature and marks the document Signed.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, actor, signature string) (*entity.Document, error) {
	if err := validateSignature(signature); err != nil {
		return nil, err
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == constants.DocumentArchived {
		return nil, common.NewAppError("ARCHIVED", "archived documents cannot be signed", common.ErrFailedPrecondition)
	}
	if err := s.docs.SetSignature(ctx, id, signature, s.now()); err != nil {
		return nil, common.WrapError(err, "store signature")
	}
	s.record(ctx, id, constants.ActionSigned, actor, "")
	s.logger.Info("documents.sign.ok", "document_id", id, "actor", actor)
	return s.docs.GetByID(ctx, id)
}

func validateSignature(sig string) error {
	if !strings.HasPrefix(sig, signaturePrefix) {
		return common.NewAppError("INVALID_SIGNATURE", "signature must be a PNG data URL", common.ErrInvalidInput)
	}
	payload := strings.TrimPrefix(sig, signaturePrefix)
	if payload == "" {
		return common.NewAppError("INVALID_SIGNATURE", "signature is empty", common.ErrInvalidInput)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return common.NewAppError("INVALID_SIGNATURE", "signature is not valid base64", common.ErrInvalidInput)
	}
	return nil
}

// Remind records a signature reminder. Only documents awaiting a signature
// can be reminded.
func (s *Service) Remind(ctx context.Context, id uuid.UUID, actor string) (*entity.HistoryEntry, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != constants.DocumentAwaitingSignature {
		return nil, common.NewAppError("NOT_AWAITING_SIGNATURE",
			fmt.Sprintf("document is %q", doc.Status), common.ErrFailedPrecondition)
	}
	e, err := s.history.Append(ctx, id, constants.ActionReminded, actor, "")
	if err != nil {
		return nil, common.WrapError(err, "record reminder")
	}
	s.logger.Info("documents.remind.ok", "document_id", id, "actor", actor)
	return e, nil
}

// Archive moves a document to Archived.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, actor string) (*entity.Document, error) {
	if err := s.docs.UpdateStatus(ctx, id, constants.DocumentArchived); err != nil {
		return nil, err
	}
	s.record(ctx, id, constants.ActionArchived, actor, "")
	return s.docs.GetByID(ctx, id)
}

// Delete removes a document with its tags and history.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("documents.delete.ok", "document_id", id)
	return nil
}

// Tags returns the distinct tags across an owner's documents.
func (s *Service) Tags(ctx context.Context, ownerID string) ([]string, error) {
	return s.docs.ListTags(ctx, ownerID)
}

// History returns a document's audit trail, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*entity.HistoryEntry, error) {
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListByDocument(ctx, id)
}

// SetText stores OCR text for a document.
func (s *Service) SetText(ctx context.Context, id uuid.UUID, text string) error {
	return s.docs.SetText(ctx, id, text)
}

// File returns the stored file behind a document.
func (s *Service) File(ctx context.Context, doc *entity.Document) (*entity.DocumentFile, error) {
	if doc.FileID == nil {
		return nil, common.NewAppError("NO_FILE", "document has no file", common.ErrFailedPrecondition)
	}
	return s.files.GetByID(ctx, *doc.FileID)
}

// OpenFile opens the stored file behind a document for reading. The caller
// closes the returned file.
func (s *Service) OpenFile(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, *os.File, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	meta, err := s.File(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(meta.StoragePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("documents.file.missing", "document_id", id, "path", meta.StoragePath)
		return nil, nil, common.NewAppError("FILE_MISSING", "stored file is missing", common.ErrNotFound)
	}
	if err != nil {
		return nil, nil, common.WrapError(err, "open stored file")
	}
	s.logger.Info("documents.file.opened", "document_id", id, "file_id", meta.ID, "size", meta.FileSize)
	return meta, f, nil
}

// record appends a history entry. Failures are logged, not returned.
func (s *Service) record(ctx context.Context, id uuid.UUID, action constants.HistoryAction, actor, detail string) {
	if _, err := s.history.Append(ctx, id, action, actor, detail); err != nil {
		s.logger.Error("documents.history.append_failed", "document_id", id, "action", action, "error", err)
	}
}

func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
