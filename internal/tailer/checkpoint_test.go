package tailer

import (
	"testing"

	"github.com/acolita/term-relay-mcp/internal/testing/fakes/fakefs"
)

func TestCheckpointRoundTrip(t *testing.T) {
	fs := fakefs.New()
	cp := NewCheckpoint(fs, "/state/checkpoint.json")

	if off := cp.Load("/logs/session.jsonl"); off != 0 {
		t.Errorf("Load on missing checkpoint = %d, want 0", off)
	}

	if err := cp.Save("/logs/session.jsonl", 4096); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if off := cp.Load("/logs/session.jsonl"); off != 4096 {
		t.Errorf("Load = %d, want 4096", off)
	}
}

func TestCheckpointIgnoresOtherFile(t *testing.T) {
	fs := fakefs.New()
	cp := NewCheckpoint(fs, "/state/checkpoint.json")

	if err := cp.Save("/logs/old.jsonl", 100); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if off := cp.Load("/logs/new.jsonl"); off != 0 {
		t.Errorf("Load for different file = %d, want 0", off)
	}
}

func TestCheckpointCorruptFileReadsZero(t *testing.T) {
	fs := fakefs.New()
	fs.WriteFile("/state/checkpoint.json", []byte("{not json"), 0644)
	cp := NewCheckpoint(fs, "/state/checkpoint.json")
	if off := cp.Load("/logs/session.jsonl"); off != 0 {
		t.Errorf("Load from corrupt checkpoint = %d, want 0", off)
	}
}
