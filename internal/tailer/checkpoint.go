package tailer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acolita/term-relay-mcp/internal/ports"
)

// Checkpoint persists the byte offset already uploaded for a transcript
// file, so restarts resume instead of re-uploading from the start.
type Checkpoint struct {
	fsys ports.FileSystem
	path string
}

type checkpointState struct {
	File   string `json:"file"`
	Offset int64  `json:"offset"`
}

// NewCheckpoint stores offsets in the file at path.
func NewCheckpoint(fsys ports.FileSystem, path string) *Checkpoint {
	return &Checkpoint{fsys: fsys, path: path}
}

// Load returns the saved offset for file, or 0 when no checkpoint exists or
// the checkpoint belongs to a different file.
func (c *Checkpoint) Load(file string) int64 {
	data, err := c.fsys.ReadFile(c.path)
	if err != nil {
		return 0
	}
	var state checkpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0
	}
	if state.File != file {
		return 0
	}
	return state.Offset
}

// Save records offset for file. The write goes through a temp file and a
// rename so a crash never leaves a half-written checkpoint.
func (c *Checkpoint) Save(file string, offset int64) error {
	data, err := json.Marshal(checkpointState{File: file, Offset: offset})
	if err != nil {
		return err
	}
	if err := c.fsys.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("checkpoint dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := c.fsys.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := c.fsys.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// DefaultCheckpointPath places the checkpoint under the user state dir.
func DefaultCheckpointPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".term-relay-uploader.json"
	}
	return filepath.Join(home, ".term-relay", "uploader-checkpoint.json")
}
