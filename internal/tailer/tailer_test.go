package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acolita/term-relay-mcp/internal/testing/fakes/fakeclock"
	"github.com/acolita/term-relay-mcp/internal/testing/fakes/fakefs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestTailerUploadsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(file, []byte("first\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := &fakeSink{}
	clock := fakeclock.New(time.Now())
	// Batch size 1 so every complete line uploads immediately.
	tl := New(file, NewBatcher(sink, "sess-1", 1), nil, 30*time.Second, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return len(sink.Batches()) == 1 })
	if sink.Batches()[0].Messages[0].Content != "first" {
		t.Errorf("first batch = %+v", sink.Batches()[0].Messages)
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("second\n")
	f.Close()

	waitFor(t, 2*time.Second, func() bool { return len(sink.Batches()) == 2 })
	if sink.Batches()[1].Messages[0].Content != "second" {
		t.Errorf("second batch = %+v", sink.Batches()[1].Messages)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestTailerFinalFlushOnCancel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(file, []byte("only line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := &fakeSink{}
	clock := fakeclock.New(time.Now())
	// Large batch size: nothing flushes until shutdown.
	tl := New(file, NewBatcher(sink, "", 100), nil, 30*time.Second, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return tl.batcher.Pending() == 1 })
	cancel()
	<-done

	if len(sink.Batches()) != 1 || sink.Batches()[0].Messages[0].Content != "only line" {
		t.Errorf("batches after shutdown = %+v", sink.Batches())
	}
}

func TestTailerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "session.jsonl")
	content := "already uploaded\nnew line\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	fs := fakefs.New()
	cp := NewCheckpoint(fs, "/state/checkpoint.json")
	offset := int64(len("already uploaded\n"))
	if err := cp.Save(file, offset); err != nil {
		t.Fatal(err)
	}

	sink := &fakeSink{}
	tl := New(file, NewBatcher(sink, "", 1), cp, 30*time.Second, fakeclock.New(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return len(sink.Batches()) == 1 })
	cancel()
	<-done

	if got := sink.Batches()[0].Messages[0].Content; got != "new line" {
		t.Errorf("uploaded %q, want only the line past the checkpoint", got)
	}
	if cp.Load(file) != int64(len(content)) {
		t.Errorf("checkpoint = %d, want %d", cp.Load(file), len(content))
	}
}

func TestTailerResetsStaleCheckpoint(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(file, []byte("short\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := fakefs.New()
	cp := NewCheckpoint(fs, "/state/checkpoint.json")
	// Offset beyond EOF, as after a truncation.
	if err := cp.Save(file, 9999); err != nil {
		t.Fatal(err)
	}

	sink := &fakeSink{}
	tl := New(file, NewBatcher(sink, "", 1), cp, 30*time.Second, fakeclock.New(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return len(sink.Batches()) == 1 })
	cancel()
	<-done

	if got := sink.Batches()[0].Messages[0].Content; got != "short" {
		t.Errorf("uploaded %q, want the whole file after reset", got)
	}
}

func TestRunReader(t *testing.T) {
	sink := &fakeSink{}
	b := NewBatcher(sink, "", 100)

	input := strings.NewReader("one\n\ntwo\n")
	if err := RunReader(context.Background(), input, b); err != nil {
		t.Fatalf("RunReader: %v", err)
	}

	if len(sink.Batches()) != 1 {
		t.Fatalf("batches = %d, want 1", len(sink.Batches()))
	}
	msgs := sink.Batches()[0].Messages
	if len(msgs) != 2 || msgs[0].Content != "one" || msgs[1].Content != "two" {
		t.Errorf("messages = %+v", msgs)
	}
}
