package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/async"
	"github.com/joseph-ayodele/docflow/internal/export"
	"github.com/joseph-ayodele/docflow/internal/ingest"
	"github.com/joseph-ayodele/docflow/internal/llm"
	"github.com/joseph-ayodele/docflow/internal/ocr"
	"github.com/joseph-ayodele/docflow/internal/repository"
	"github.com/joseph-ayodele/docflow/internal/services/assistant"
	"github.com/joseph-ayodele/docflow/internal/services/documents"
	ingestsvc "github.com/joseph-ayodele/docflow/internal/services/ingest"
	"github.com/joseph-ayodele/docflow/internal/services/templates"
)

type stubOCR struct{ text string }

func (s stubOCR) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: s.text, Method: "image-ocr", SourceType: constants.IMAGE, Confidence: 0.9}, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

type fixture struct {
	store     *repository.Store
	docs      *documents.Service
	templates *templates.Service
	assistant *assistant.Service
	export    *export.Service
	queue     *fakeQueue

	mu     sync.Mutex
	answer string
}

func (f *fixture) setAnswer(a string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer = a
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.Config{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	f := &fixture{store: store, queue: &fakeQueue{}}
	completer := llm.CompleterFunc(func(context.Context, llm.Prompt) (string, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.answer, nil
	})

	docRepo := repository.NewDocumentRepository(store, nil)
	history := repository.NewHistoryRepository(store, nil)
	f.docs = documents.NewService(docRepo, repository.NewDocumentFileRepository(store, nil), history,
		completer, documents.Config{StorageDir: t.TempDir()}, nil)
	f.templates = templates.NewService(repository.NewTemplateRepository(store, nil), docRepo, history,
		completer, stubOCR{text: "LEASE\nTenant Name: ____"}, llm.RetryConfig{}, nil)
	f.assistant = assistant.NewService(completer, nil)
	f.export = export.NewService(f.docs, nil)
	return f
}

// dial serves every gRPC service over an in-memory listener.
func (f *fixture) dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	gs, _ := NewGRPCServer(nil)
	RegisterExtractionService(gs, NewExtractionServer("", nil))
	RegisterTemplatesService(gs, NewTemplatesServer(f.templates, nil))
	RegisterDocumentsService(gs, NewDocumentsServer(f.docs, nil))
	RegisterAssistantService(gs, NewAssistantServer(f.assistant, nil))
	RegisterIngestionService(gs, NewIngestionServer(
		ingestsvc.NewService(ingest.NewFSIngestor(f.docs, nil), f.queue, nil), nil))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), "/docflow.v1."+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
