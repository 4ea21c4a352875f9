package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/ingest"
	ingestsvc "github.com/joseph-ayodele/docflow/internal/services/ingest"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

type IngestionService interface {
	IngestFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const ingestionServiceName = servicePrefix + "Ingestion"

var ingestionServiceDesc = grpc.ServiceDesc{
	ServiceName: ingestionServiceName,
	HandlerType: (*IngestionService)(nil),
	Methods: []grpc.MethodDesc{
		unary(ingestionServiceName, "IngestFile", IngestionService.IngestFile),
		unary(ingestionServiceName, "IngestDirectory", IngestionService.IngestDirectory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docflow/v1/ingestion",
}

func RegisterIngestionService(r grpc.ServiceRegistrar, srv IngestionService) {
	r.RegisterService(&ingestionServiceDesc, srv)
}

type IngestionServer struct {
	svc    *ingestsvc.Service
	logger *slog.Logger
}

func NewIngestionServer(svc *ingestsvc.Service, logger *slog.Logger) *IngestionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionServer{svc: svc, logger: logger}
}

func ingestResultMap(r ingest.IngestionResult) map[string]any {
	m := map[string]any{
		"document_id":      r.DocumentID,
		"file_id":          r.FileID,
		"deduplicated":     r.Deduplicated,
		"content_hash_hex": r.HashHex,
		"file_ext":         r.FileExt,
		"source_path":      r.SourcePath,
		"error":            r.Err,
	}
	if !r.UploadedAt.IsZero() {
		m["uploaded_at"] = r.UploadedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// ingestError reports ingest failures as bad input unless the error already
// maps to a more specific code.
func ingestError(err error) error {
	if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound) {
		return err
	}
	return status.Errorf(codes.InvalidArgument, "ingest: %v", err)
}

// IngestFile stores the file at {"path"} for {"owner_id"} and queues it for
// OCR and analysis.
func (s *IngestionServer) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r, err := s.svc.IngestFile(ctx, ingestsvc.FileIngestRequest{
		OwnerID:        utils.String(req, "owner_id"),
		Path:           utils.String(req, "path"),
		SkipDuplicates: utils.Bool(req, "skip_duplicates", false),
	})
	if err != nil {
		return nil, ingestError(err)
	}
	return newStruct(ingestResultMap(r))
}

// IngestDirectory walks {"root_path"}. Hidden entries are skipped unless
// {"skip_hidden": false}.
func (s *IngestionServer) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.svc.IngestDirectory(ctx, ingestsvc.DirectoryIngestRequest{
		OwnerID:        utils.String(req, "owner_id"),
		RootPath:       utils.String(req, "root_path"),
		IncludeHidden:  !utils.Bool(req, "skip_hidden", true),
		SkipDuplicates: utils.Bool(req, "skip_duplicates", false),
	})
	if err != nil {
		return nil, ingestError(err)
	}

	results := make([]any, 0, len(res.Results))
	for _, r := range res.Results {
		results = append(results, ingestResultMap(r))
	}
	st := res.Statistics
	return newStruct(map[string]any{
		"scanned":      st.Scanned,
		"matched":      st.Matched,
		"succeeded":    st.Succeeded,
		"deduplicated": st.Deduplicated,
		"failed":       st.Failed,
		"results":      results,
	})
}
