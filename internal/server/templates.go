package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/services/templates"
	"github.com/joseph-ayodele/docflow/internal/utils"
)

type TemplatesService interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Instantiate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const templatesServiceName = servicePrefix + "Templates"

var templatesServiceDesc = grpc.ServiceDesc{
	ServiceName: templatesServiceName,
	HandlerType: (*TemplatesService)(nil),
	Methods: []grpc.MethodDesc{
		unary(templatesServiceName, "Generate", TemplatesService.Generate),
		unary(templatesServiceName, "Save", TemplatesService.Save),
		unary(templatesServiceName, "Get", TemplatesService.Get),
		unary(templatesServiceName, "List", TemplatesService.List),
		unary(templatesServiceName, "Update", TemplatesService.Update),
		unary(templatesServiceName, "Delete", TemplatesService.Delete),
		unary(templatesServiceName, "Instantiate", TemplatesService.Instantiate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docflow/v1/templates",
}

func RegisterTemplatesService(r grpc.ServiceRegistrar, srv TemplatesService) {
	r.RegisterService(&templatesServiceDesc, srv)
}

type TemplatesServer struct {
	svc    *templates.Service
	logger *slog.Logger
}

func NewTemplatesServer(svc *templates.Service, logger *slog.Logger) *TemplatesServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplatesServer{svc: svc, logger: logger}
}

// Generate proposes a template from {"text"} or, when text is empty, from
// the scanned image at {"path"} on the server's filesystem.
func (s *TemplatesServer) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		gen *templates.Generated
		err error
	)
	if text := utils.String(req, "text"); text != "" {
		gen, err = s.svc.GenerateFromText(ctx, text)
	} else {
		gen, err = s.svc.GenerateFromImage(ctx, utils.String(req, "path"))
	}
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{
		"template":    utils.FormToMap(gen.Template),
		"source_text": gen.SourceText,
		"attempts":    gen.Attempts,
	})
}

func (s *TemplatesServer) Save(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	form, err := utils.FormFromStruct(req.GetFields()["template"].GetStructValue())
	if err != nil {
		return nil, err
	}
	t, err := s.svc.Save(ctx, templates.SaveRequest{
		OwnerID:    utils.String(req, "owner_id"),
		Template:   form,
		SourceText: utils.String(req, "source_text"),
	})
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"template": utils.TemplateToMap(t)})
}

func (s *TemplatesServer) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	t, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"template": utils.TemplateToMap(t)})
}

func (s *TemplatesServer) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ts, err := s.svc.List(ctx, utils.String(req, "owner_id"))
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"templates": utils.TemplatesToAny(ts)})
}

func (s *TemplatesServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	form, err := utils.FormFromStruct(req.GetFields()["template"].GetStructValue())
	if err != nil {
		return nil, err
	}
	t, err := s.svc.Update(ctx, id, form)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"template": utils.TemplateToMap(t)})
}

func (s *TemplatesServer) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *TemplatesServer) Instantiate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := utils.UUID(req, "template_id")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	doc, err := s.svc.Instantiate(ctx, templates.InstantiateRequest{
		TemplateID: id,
		OwnerID:    utils.String(req, "owner_id"),
		Title:      utils.String(req, "title"),
		SharedWith: utils.Strings(req, "shared_with"),
		Values:     utils.StringMap(req, "values"),
	})
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"document": utils.DocumentToMap(doc)})
}
