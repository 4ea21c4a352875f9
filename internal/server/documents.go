package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/entity"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

type DocumentsService interface {
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remind(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Archive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tags(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const documentsServiceName = servicePrefix + "Documents"

var documentsServiceDesc = grpc.ServiceDesc{
	ServiceName: documentsServiceName,
	HandlerType: (*DocumentsService)(nil),
	Methods: []grpc.MethodDesc{
		unary(documentsServiceName, "Get", DocumentsService.Get),
		unary(documentsServiceName, "List", DocumentsService.List),
		unary(documentsServiceName, "Analyze", DocumentsService.Analyze),
		unary(documentsServiceName, "Sign", DocumentsService.Sign),
		unary(documentsServiceName, "Remind", DocumentsService.Remind),
		unary(documentsServiceName, "Archive", DocumentsService.Archive),
		unary(documentsServiceName, "Delete", DocumentsService.Delete),
		unary(documentsServiceName, "Tags", DocumentsService.Tags),
		unary(documentsServiceName, "History", DocumentsService.History),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docflow/v1/documents",
}

func RegisterDocumentsService(r grpc.ServiceRegistrar, srv DocumentsService) {
	r.RegisterService(&documentsServiceDesc, srv)
}

type DocumentsServer struct {
	svc    *documents.Service
	logger *slog.Logger
}

func NewDocumentsServer(svc *documents.Service, logger *slog.Logger) *DocumentsServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentsServer{svc: svc, logger: logger}
}

func documentResponse(d *entity.Document, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"document": utils.DocumentToMap(d)})
}

func (s *DocumentsServer) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	return documentResponse(s.svc.Get(ctx, id))
}

// List accepts owner_id, status, tag, limit and offset, all optional.
func (s *DocumentsServer) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, offset := utils.Int(req, "limit"), utils.Int(req, "offset")
	if limit < 0 || offset < 0 {
		return nil, common.InvalidArgumentError("limit and offset must not be negative")
	}
	docs, err := s.svc.List(ctx, entity.DocumentFilter{
		OwnerID: utils.String(req, "owner_id"),
		Status:  constants.DocumentStatus(utils.String(req, "status")),
		Tag:     utils.String(req, "tag"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"documents": utils.DocumentsToAny(docs)})
}

func (s *DocumentsServer) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	return documentResponse(s.svc.Analyze(ctx, id))
}

func (s *DocumentsServer) Sign(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	return documentResponse(s.svc.Sign(ctx, id, utils.String(req, "actor"), utils.String(req, "signature")))
}

func (s *DocumentsServer) Remind(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	e, err := s.svc.Remind(ctx, id, utils.String(req, "actor"))
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"entry": utils.HistoryToMap(e)})
}

func (s *DocumentsServer) Archive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	return documentResponse(s.svc.Archive(ctx, id, utils.String(req, "actor")))
}

func (s *DocumentsServer) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *DocumentsServer) Tags(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tags, err := s.svc.Tags(ctx, utils.String(req, "owner_id"))
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"tags": utils.StringsToAny(tags)})
}

func (s *DocumentsServer) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	entries, err := s.svc.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"entries": utils.HistoryToAny(entries)})
}
