package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/internal/extract"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

// ExtractionService exposes the pure extraction functions over raw completions.
type ExtractionService interface {
	ExtractTags(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summarize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const extractionServiceName = servicePrefix + "Extraction"

var extractionServiceDesc = grpc.ServiceDesc{
	ServiceName: extractionServiceName,
	HandlerType: (*ExtractionService)(nil),
	Methods: []grpc.MethodDesc{
		unary(extractionServiceName, "ExtractTags", ExtractionService.ExtractTags),
		unary(extractionServiceName, "ExtractTemplate", ExtractionService.ExtractTemplate),
		unary(extractionServiceName, "Summarize", ExtractionService.Summarize),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docflow/v1/extraction",
}

func RegisterExtractionService(r grpc.ServiceRegistrar, srv ExtractionService) {
	r.RegisterService(&extractionServiceDesc, srv)
}

type ExtractionServer struct {
	segmenter extract.Segmenter
	logger    *slog.Logger
}

// NewExtractionServer uses marker to split summaries from tag suggestions
// when a request does not name its own.
func NewExtractionServer(marker string, logger *slog.Logger) *ExtractionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionServer{segmenter: extract.NewSegmenter(marker), logger: logger}
}

func (s *ExtractionServer) ExtractTags(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tags, err := extract.ExtractTags(req.GetFields()["raw"].GetStringValue())
	if err != nil {
		s.logger.Debug("extract.tags.failed", "kind", extract.KindOf(err), "error", err)
		return nil, err
	}
	return newStruct(map[string]any{"tags": utils.StringsToAny(tags)})
}

func (s *ExtractionServer) ExtractTemplate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tpl, err := extract.ExtractTemplate(req.GetFields()["raw"].GetStringValue())
	if err != nil {
		s.logger.Debug("extract.template.failed", "kind", extract.KindOf(err), "error", err)
		return nil, err
	}
	return newStruct(map[string]any{"template": utils.FormToMap(tpl)})
}

// Summarize returns the summary with an empty tag list when the completion
// carries no tag array after the marker.
func (s *ExtractionServer) Summarize(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	seg := s.segmenter
	if m := utils.String(req, "marker"); m != "" {
		seg = extract.NewSegmenter(m)
	}
	a, err := extract.Summarize(req.GetFields()["raw"].GetStringValue(), seg)
	if err != nil && !errors.Is(err, extract.ErrNoBlockFound) {
		return nil, err
	}
	return newStruct(map[string]any{"summary": a.Summary, "tags": utils.StringsToAny(a.Tags)})
}
