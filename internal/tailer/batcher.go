package tailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acolita/term-relay-mcp/internal/knowledge"
)

// Sink receives transcript batches. *knowledge.Client satisfies it.
type Sink interface {
	AppendMessages(ctx context.Context, batch knowledge.MessageBatch) error
}

// Batcher buffers transcript lines and uploads them in batches.
type Batcher struct {
	sink      Sink
	sessionID string
	maxSize   int

	mu      sync.Mutex
	pending []knowledge.Message
}

// NewBatcher flushes to sink whenever the buffer reaches maxSize lines.
func NewBatcher(sink Sink, sessionID string, maxSize int) *Batcher {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Batcher{sink: sink, sessionID: sessionID, maxSize: maxSize}
}

// Add buffers one line, flushing if the batch is full.
func (b *Batcher) Add(ctx context.Context, line string) error {
	b.mu.Lock()
	b.pending = append(b.pending, knowledge.Message{
		SessionID: b.sessionID,
		Content:   line,
		Timestamp: time.Now().UTC(),
	})
	full := len(b.pending) >= b.maxSize
	b.mu.Unlock()
	if full {
		return b.Flush(ctx)
	}
	return nil
}

// Flush uploads all pending lines as one batch. On failure the lines stay
// pending and the next flush retries them under a new batch id.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}
	batch := knowledge.MessageBatch{
		BatchID:  uuid.NewString(),
		Messages: b.pending,
	}
	b.mu.Unlock()

	if err := b.sink.AppendMessages(ctx, batch); err != nil {
		return err
	}

	b.mu.Lock()
	b.pending = b.pending[len(batch.Messages):]
	b.mu.Unlock()
	return nil
}

// Pending reports how many lines are buffered.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
