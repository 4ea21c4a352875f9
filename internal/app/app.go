// Package app wires repositories, services and the background queue from a
// loaded configuration.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/export"
	"github.com/joseph-ayodele/docflow/internal/ingest"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/llm/openai"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/pipeline"
	repo "github.com/joseph-ayodele/docflow/internal/repository"
	"github.com/joseph-ayodele/docflow/internal/server"
	"github.com/joseph-ayodele/docflow/internal/services/assistant"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
	ingestsvc "github.com/joseph-ayodele/docflow/internal/services/ingest"
	"github.com/joseph-ayodele/docflow/internal/services/templates"
)

// NewCompleter builds the hosted completion client.
func NewCompleter(cfg common.LLMConfig, logger *slog.Logger) llm.Completer {
	return openai.NewClient(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}, logger)
}

// NewOCR builds the tesseract/poppler text extractor.
func NewOCR(cfg common.OCRConfig, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		TessdataDir:         cfg.TessdataDir,
		TesseractLang:       cfg.Language,
		MaxPages:            cfg.MaxPages,
		HeicConverter:       cfg.HeicConverter,
		EnableTSVConfidence: true,
	}, logger)
}

// RetryConfig maps the configured attempt budget.
func RetryConfig(cfg common.LLMConfig) llm.RetryConfig {
	return llm.RetryConfig{MaxAttempts: cfg.MaxAttempts}
}

// App holds the wired services of one process.
type App struct {
	Store     *repo.Store
	Documents *documents.Service
	Templates *templates.Service
	Assistant *assistant.Service
	Export    *export.Service
	Ingest    *ingestsvc.Service
	Processor *pipeline.Processor
	Queue     *async.ProcessorQueue

	logger *slog.Logger
}

// Options overrides the external collaborators, mainly for tests.
type Options struct {
	Completer llm.Completer
	OCR       pipeline.TextExtractor
}

// New connects to the database and wires every service. The queue's workers
// start immediately; call Close to drain them.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	completer := opts.Completer
	if completer == nil {
		completer = NewCompleter(cfg.LLM, logger)
	}
	extractor := opts.OCR
	if extractor == nil {
		extractor = NewOCR(cfg.OCR, logger)
	}
	retry := RetryConfig(cfg.LLM)

	docRepo := repo.NewDocumentRepository(store, logger)
	fileRepo := repo.NewDocumentFileRepository(store, logger)
	historyRepo := repo.NewHistoryRepository(store, logger)
	jobRepo := repo.NewProcessJobRepository(store, logger)
	templateRepo := repo.NewTemplateRepository(store, logger)

	docs := documents.NewService(docRepo, fileRepo, historyRepo, completer, documents.Config{
		StorageDir: cfg.OCR.StorageDir,
		TagMarker:  cfg.LLM.TagMarker,
		Retry:      retry,
	}, logger)

	processor := pipeline.NewProcessor(logger, docs, jobRepo,
		pipeline.NewOCRStage(docs, jobRepo, extractor, logger),
		pipeline.NewAnalyzeStage(docs, logger),
	)
	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessAfter),
	)

	return &App{
		Store:     store,
		Documents: docs,
		Templates: templates.NewService(templateRepo, docRepo, historyRepo, completer, extractor, retry, logger),
		Assistant: assistant.NewService(completer, logger),
		Export:    export.NewService(docs, logger),
		Ingest:    ingestsvc.NewService(ingest.NewFSIngestor(docs, logger), queue, logger),
		Processor: processor,
		Queue:     queue,
		logger:    logger,
	}, nil
}

// Health pings the database.
func (a *App) Health(ctx context.Context) error {
	return a.Store.HealthCheck(ctx, 2*time.Second)
}

// Close drains the queue, then closes the database.
func (a *App) Close(ctx context.Context) {
	a.Queue.Shutdown(ctx)
	server.CloseDB(a.Store, a.logger)
}
