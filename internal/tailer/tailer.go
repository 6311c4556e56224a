// Package tailer follows an append-only transcript file and uploads its
// lines to the knowledge store in batches.
package tailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/acolita/term-relay-mcp/internal/ports"
)

// Tailer follows one transcript file from a checkpointed offset.
type Tailer struct {
	file       string
	batcher    *Batcher
	checkpoint *Checkpoint
	interval   time.Duration
	clock      ports.Clock

	f       *os.File
	offset  int64
	partial string
}

// New creates a tailer for file. The checkpoint may be nil, in which case
// the tailer always starts from the beginning of the file.
func New(file string, batcher *Batcher, checkpoint *Checkpoint, interval time.Duration, clock ports.Clock) *Tailer {
	return &Tailer{
		file:       file,
		batcher:    batcher,
		checkpoint: checkpoint,
		interval:   interval,
		clock:      clock,
	}
}

// Run follows the file until ctx is cancelled, then performs a final flush.
// fsnotify signals growth; a ticker flushes whatever has buffered.
func (t *Tailer) Run(ctx context.Context) error {
	f, err := os.Open(t.file)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	t.f = f

	t.offset = 0
	if t.checkpoint != nil {
		t.offset = t.checkpoint.Load(t.file)
	}
	info, err := f.Stat()
	if err == nil && t.offset > info.Size() {
		// File was truncated or replaced since the last run.
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek transcript: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(t.file); err != nil {
		return fmt.Errorf("watch transcript: %w", err)
	}

	if err := t.drain(ctx); err != nil {
		return err
	}

	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.drain(context.Background())
			t.flush(context.Background())
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Write != 0 {
				if err := t.drain(ctx); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("transcript watch error", "error", err)
		case <-ticker.C():
			t.flush(ctx)
		}
	}
}

// drain reads everything appended since the last call and buffers the
// complete lines. A trailing partial line waits for its newline.
func (t *Tailer) drain(ctx context.Context) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.f.Read(buf)
		if n > 0 {
			t.partial += string(buf[:n])
			for {
				i := strings.IndexByte(t.partial, '\n')
				if i < 0 {
					break
				}
				line := t.partial[:i]
				t.partial = t.partial[i+1:]
				t.offset += int64(i) + 1
				if line == "" {
					continue
				}
				if err := t.batcher.Add(ctx, line); err != nil {
					slog.Warn("upload batch failed", "error", err, "pending", t.batcher.Pending())
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
	}
}

// flush uploads pending lines and advances the checkpoint on success.
func (t *Tailer) flush(ctx context.Context) {
	if err := t.batcher.Flush(ctx); err != nil {
		slog.Warn("upload batch failed", "error", err, "pending", t.batcher.Pending())
		return
	}
	if t.checkpoint != nil {
		if err := t.checkpoint.Save(t.file, t.offset); err != nil {
			slog.Warn("save checkpoint failed", "error", err)
		}
	}
}

// RunReader uploads lines from r (typically stdin) until it is exhausted or
// ctx is cancelled, flushing on the way out. No checkpointing applies.
func RunReader(ctx context.Context, r io.Reader, batcher *Batcher) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := batcher.Add(ctx, line); err != nil {
			slog.Warn("upload batch failed", "error", err, "pending", batcher.Pending())
		}
	}
	if err := batcher.Flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	return scanner.Err()
}
