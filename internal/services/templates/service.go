package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/extract"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/repository"
)

// TextExtractor turns a scanned file into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Service handles template business logic.
type Service struct {
	templates repository.TemplateRepository
	docs      repository.DocumentRepository
	history   repository.HistoryRepository
	completer llm.Completer
	ocr       TextExtractor
	retry     llm.RetryConfig
	logger    *slog.Logger
}

// NewService creates a new template service.
func NewService(
	templates repository.TemplateRepository,
	docs repository.DocumentRepository,
	history repository.HistoryRepository,
	completer llm.Completer,
	extractor TextExtractor,
	retry llm.RetryConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		templates: templates,
		docs:      docs,
		history:   history,
		completer: completer,
		ocr:       extractor,
		retry:     retry,
		logger:    logger,
	}
}

// Generated is a validated template proposal that has not been saved yet.
type Generated struct {
	Template   extract.FormTemplate
	SourceText string
	Attempts   int
	Raw        string
}

// GenerateFromImage OCRs a scanned form and asks for a template matching it.
func (s *Service) GenerateFromImage(ctx context.Context, path string) (*Generated, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, common.NewAppError("INVALID_PATH", "path is required", common.ErrInvalidInput)
	}
	if s.ocr == nil {
		return nil, common.NewAppError("OCR_DISABLED", "no OCR extractor configured", common.ErrFailedPrecondition)
	}
	res, err := s.ocr.Extract(ctx, path)
	if err != nil {
		s.logger.Error("templates.ocr.failed", "path", path, "error", err)
		return nil, common.NewAppError("OCR_FAILED", "extract text", err)
	}
	s.logger.Info("templates.ocr.ok", "path", path, "method", res.Method, "confidence", res.Confidence, "text_len", len(res.Text))
	return s.GenerateFromText(ctx, res.Text)
}

// GenerateFromText asks for a template for already extracted text. An answer
// without a usable template is retried once with a stricter prompt.
func (s *Service) GenerateFromText(ctx context.Context, text string) (*Generated, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.NewAppError("NO_TEXT", "no text to build a template from", common.ErrInvalidInput)
	}
	prompts := []llm.Prompt{
		llm.BuildTemplatePrompt(text),
		llm.BuildStrictTemplatePrompt(text),
	}
	start := time.Now()
	tpl, attempt, err := llm.CompleteAndParse(ctx, s.completer, prompts, extract.ExtractTemplate, s.retry, s.logger)
	if err != nil {
		s.logger.Error("templates.generate.failed",
			"kind", extract.KindOf(err),
			"attempts", attempt.Number,
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("templates.generate.ok",
		"title", tpl.Title,
		"fields", len(tpl.Fields),
		"attempts", attempt.Number,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Generated{Template: tpl, SourceText: text, Attempts: attempt.Number, Raw: attempt.Raw}, nil
}

// SaveRequest stores a (possibly user-edited) template.
type SaveRequest struct {
	OwnerID    string
	Template   extract.FormTemplate
	SourceText string
}

// Save validates and persists a template.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*entity.Template, error) {
	validator := common.NewValidator()
	validator.Field("owner_id", req.OwnerID, common.Required)
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}
	form, err := revalidate(req.Template)
	if err != nil {
		return nil, err
	}
	t, err := s.templates.Create(ctx, &entity.Template{
		OwnerID:    req.OwnerID,
		Title:      form.Title,
		Fields:     form.Fields,
		SourceText: req.SourceText,
	})
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "save template", errors.Join(common.ErrDatabase, err))
	}
	s.logger.Info("templates.save.ok", "template_id", t.ID, "owner_id", t.OwnerID, "fields", len(t.Fields))
	return t, nil
}

// revalidate runs an edited template back through the extraction validator
// so saved templates obey the same rules as generated ones.
func revalidate(form extract.FormTemplate) (extract.FormTemplate, error) {
	b, err := form.JSON()
	if err != nil {
		return extract.FormTemplate{}, err
	}
	c, err := extract.ParseTemplate(string(b))
	if err != nil {
		return extract.FormTemplate{}, err
	}
	return extract.ValidateTemplate(c)
}

// Get returns one template.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Template, error) {
	return s.templates.GetByID(ctx, id)
}

// List returns an owner's templates, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*entity.Template, error) {
	return s.templates.List(ctx, ownerID)
}

// Update replaces a template's title and fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, form extract.FormTemplate) (*entity.Template, error) {
	valid, err := revalidate(form)
	if err != nil {
		return nil, err
	}
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Title = valid.Title
	t.Fields = valid.Fields
	return s.templates.Update(ctx, t)
}

// Delete removes a template. Documents created from it keep their content.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("templates.delete.ok", "template_id", id)
	return nil
}

// InstantiateRequest fills a template into a new document.
type InstantiateRequest struct {
	TemplateID uuid.UUID
	OwnerID    string
	Title      string
	SharedWith []string
	Values     map[string]string
}

// Instantiate creates a document awaiting signature from a template. Values
// are keyed by field name; every field gets an entry and unknown names are
// rejected.
func (s *Service) Instantiate(ctx context.Context, req InstantiateRequest) (*entity.Document, error) {
	validator := common.NewValidator()
	validator.Field("owner_id", req.OwnerID, common.Required)
	validator.Field("title", req.Title, common.MaxLength(200))
	if err := common.ValidateAndReturnError(validator); err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	content := make(map[string]string, len(tpl.Fields))
	for _, f := range tpl.Fields {
		content[f.Name] = ""
	}
	var unknown []string
	for k, v := range req.Values {
		if _, ok := content[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		content[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, common.NewAppError("UNKNOWN_FIELDS",
			fmt.Sprintf("template has no fields named %s", strings.Join(unknown, ", ")), common.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = tpl.Title
	}
	templateID := tpl.ID
	doc, err := s.docs.Create(ctx, &entity.Document{
		OwnerID:    req.OwnerID,
		SharedWith: req.SharedWith,
		TemplateID: &templateID,
		Title:      title,
		Status:     constants.DocumentAwaitingSignature,
		Content:    content,
	})
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "create document", errors.Join(common.ErrDatabase, err))
	}
	if _, err := s.history.Append(ctx, doc.ID, constants.ActionCreated, req.OwnerID, "from template "+tpl.Title); err != nil {
		s.logger.Error("templates.history.append_failed", "document_id", doc.ID, "error", err)
	}
	s.logger.Info("templates.instantiate.ok", "template_id", tpl.ID, "document_id", doc.ID, "owner_id", req.OwnerID)
	return doc, nil
}
