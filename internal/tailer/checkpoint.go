package tailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// checkpointData is the on-disk JSON layout.
type checkpointData struct {
	Offsets   map[string]int64 `json:"offsets"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Checkpoint persists per-file read offsets so follow mode can resume after a
// restart without rescoring lines it has already seen.
type Checkpoint struct {
	mu    sync.RWMutex
	path  string
	data  checkpointData
	dirty bool
}

// NewCheckpoint loads the checkpoint at path, or starts empty when the file
// does not exist. A file that exists but cannot be decoded is an error.
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		data: checkpointData{Offsets: make(map[string]int64)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.data); err != nil {
			return nil, fmt.Errorf("decoding checkpoint %s: %w", path, err)
		}
	}
	if c.data.Offsets == nil {
		c.data.Offsets = make(map[string]int64)
	}

	return c, nil
}

// Get returns the saved offset for a file path.
func (c *Checkpoint) Get(path string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data.Offsets[path]
	return v, ok
}

// Set records the current offset for a file path.
func (c *Checkpoint) Set(path string, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.data.Offsets[path]; ok && old == offset {
		return
	}
	c.data.Offsets[path] = offset
	c.dirty = true
}

// Save writes the checkpoint to disk atomically. It is a no-op when nothing
// changed since the last save.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	c.data.UpdatedAt = time.Now().UTC()

	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
