package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docflow/internal/common"
)

type recordingProcessor struct {
	mu     sync.Mutex
	seen   []uuid.UUID
	forced []uuid.UUID
	block  chan struct{}
	fail   bool
}

func (p *recordingProcessor) ProcessDocument(ctx context.Context, id uuid.UUID, force bool) (uuid.UUID, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
	p.mu.Lock()
	p.seen = append(p.seen, id)
	if force {
		p.forced = append(p.forced, id)
	}
	p.mu.Unlock()
	if p.fail {
		return uuid.New(), errors.New("boom")
	}
	return uuid.New(), nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func TestProcessorQueue_ProcessesAndDrains(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(8), WithProcessTimeout(time.Second))

	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: ids[i]}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.ElementsMatch(t, ids, proc.seen)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}), ErrQueueClosed)

	// A second shutdown is a no-op.
	q.Shutdown(ctx)
}

func TestProcessorQueue_FailuresDoNotStopWorkers(t *testing.T) {
	proc := &recordingProcessor{fail: true}
	q := NewProcessorQueue(proc, nil, WithWorkers(1))
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, 3, proc.count())
}

func TestProcessorQueue_EnqueueHonorsContextWhenFull(t *testing.T) {
	proc := &recordingProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	// One job occupies the worker, one fills the buffer.
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}))
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{DocumentID: uuid.New()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(proc.block)
	q.Shutdown(context.Background())
	assert.Equal(t, 2, proc.count())
}

type traceProcessor struct {
	mu  sync.Mutex
	ids []string
}

func (p *traceProcessor) ProcessDocument(ctx context.Context, _ uuid.UUID, _ bool) (uuid.UUID, error) {
	p.mu.Lock()
	p.ids = append(p.ids, common.RequestIDFromContext(ctx))
	p.mu.Unlock()
	return uuid.New(), nil
}

func TestProcessorQueue_PropagatesTraceID(t *testing.T) {
	proc := &traceProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New(), TraceID: "req-42"}))
	q.Shutdown(context.Background())
	assert.Equal(t, []string{"req-42"}, proc.ids)
}

func TestProcessorQueue_PassesForce(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(1))
	plain, forced := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: plain}))
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: forced, Force: true}))
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []uuid.UUID{plain, forced}, proc.seen)
	assert.Equal(t, []uuid.UUID{forced}, proc.forced)
}
