package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/export"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
	"github.com/joseph-ayodele/docflow/internal/services/templates"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

// HTTPServer serves the byte-oriented endpoints: uploads, OCR templates and
// spreadsheet exports.
type HTTPServer struct {
	router    chi.Router
	docs      *documents.Service
	templates *templates.Service
	export    *export.Service
	queue     async.Queue
	health    func(context.Context) error
	log       *slog.Logger
}

// HTTPDeps are the services behind the HTTP routes. Queue and Health may be nil.
type HTTPDeps struct {
	Documents *documents.Service
	Templates *templates.Service
	Export    *export.Service
	Queue     async.Queue
	Health    func(context.Context) error
}

func NewHTTPServer(deps HTTPDeps, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		docs:      deps.Documents,
		templates: deps.Templates,
		export:    deps.Export,
		queue:     deps.Queue,
		health:    deps.Health,
		log:       logger,
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{id}/file", s.handleDownload)
		r.Post("/templates/ocr", s.handleTemplateOCR)
		r.Get("/export.xlsx", s.handleExport)
	})

	s.router = r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			jsonError(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload reads the "file" part of a multipart form, bounded by
// constants.MaxUploadBytes.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes+1<<20) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > constants.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", constants.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filepath.Base(header.Filename), data, true
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	res, err := s.docs.Upload(r.Context(), documents.UploadRequest{
		OwnerID:  strings.TrimSpace(r.FormValue("owner_id")),
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		s.fail(w, "http.upload.failed", err)
		return
	}

	queued := false
	if s.queue != nil && (!res.Deduplicated || r.FormValue("force") == "true") {
		err := s.queue.Enqueue(r.Context(), async.Job{
			DocumentID:  res.Document.ID,
			Force:       res.Deduplicated,
			SubmittedAt: time.Now(),
			TraceID:     common.RequestIDFromContext(r.Context()),
		})
		if err != nil {
			s.log.Error("http.upload.enqueue_failed", "document_id", res.Document.ID, "error", err)
		} else {
			queued = true
		}
	}

	code := http.StatusCreated
	if res.Deduplicated {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"document":         utils.DocumentToMap(res.Document),
		"file_id":          res.File.ID.String(),
		"content_hash_hex": res.HashHex,
		"deduplicated":     res.Deduplicated,
		"queued":           queued,
	})
}

// handleDownload streams the uploaded file behind a document.
func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "id must be a UUID", http.StatusBadRequest)
		return
	}
	meta, f, err := s.docs.OpenFile(r.Context(), id)
	if err != nil {
		s.fail(w, "http.download.failed", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	http.ServeContent(w, r, meta.Filename, meta.UploadedAt, f)
}

// handleTemplateOCR proposes a template from a scanned form image. With
// save=true and an owner_id the proposal is stored as well.
func (s *HTTPServer) handleTemplateOCR(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	ext := constants.NormalizeExt(filepath.Ext(filename))
	if !constants.IsAllowedExt(ext) {
		jsonError(w, fmt.Sprintf("unsupported file type: %q", ext), http.StatusBadRequest)
		return
	}
	tmp, err := os.CreateTemp("", "docflow-ocr-*."+ext)
	if err != nil {
		s.fail(w, "http.template_ocr.tmp_failed", err)
		return
	}
	defer os.Remove(tmp.Name())
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		s.fail(w, "http.template_ocr.tmp_failed", werr)
		return
	}

	gen, err := s.templates.GenerateFromImage(r.Context(), tmp.Name())
	if err != nil {
		s.fail(w, "http.template_ocr.failed", err)
		return
	}
	out := map[string]any{
		"template":    utils.FormToMap(gen.Template),
		"source_text": gen.SourceText,
		"attempts":    gen.Attempts,
	}
	if r.FormValue("save") == "true" {
		t, err := s.templates.Save(r.Context(), templates.SaveRequest{
			OwnerID:    strings.TrimSpace(r.FormValue("owner_id")),
			Template:   gen.Template,
			SourceText: gen.SourceText,
		})
		if err != nil {
			s.fail(w, "http.template_ocr.save_failed", err)
			return
		}
		out["saved"] = utils.TemplateToMap(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) fail(w http.ResponseWriter, event string, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		s.log.Error(event, "error", err)
	} else {
		s.log.Warn(event, "error", err)
	}
	jsonError(w, err.Error(), code)
}

// httpStatus maps a service error through its gRPC code.
func httpStatus(err error) int {
	switch status.Code(common.ToStatus(err)) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unavailable:
		return http.StatusBadGateway
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
