package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/internal/services/assistant"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

type AssistantService interface {
	Ask(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const assistantServiceName = servicePrefix + "Assistant"

var assistantServiceDesc = grpc.ServiceDesc{
	ServiceName: assistantServiceName,
	HandlerType: (*AssistantService)(nil),
	Methods: []grpc.MethodDesc{
		unary(assistantServiceName, "Ask", AssistantService.Ask),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docflow/v1/assistant",
}

func RegisterAssistantService(r grpc.ServiceRegistrar, srv AssistantService) {
	r.RegisterService(&assistantServiceDesc, srv)
}

type AssistantServer struct {
	svc    *assistant.Service
	logger *slog.Logger
}

func NewAssistantServer(svc *assistant.Service, logger *slog.Logger) *AssistantServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantServer{svc: svc, logger: logger}
}

func (s *AssistantServer) Ask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	answer, err := s.svc.Ask(ctx, utils.String(req, "question"))
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"answer": answer})
}
