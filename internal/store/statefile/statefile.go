// Package statefile writes the latest bot state to a JSON file for
// file-polling dashboards. Each publish replaces the file atomically.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

// Writer publishes state to a single JSON file.
type Writer struct {
	path string
	mu   sync.Mutex
}

// New creates a Writer for path.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Name identifies the writer in error logs and metrics.
func (w *Writer) Name() string { return "statefile" }

// Path returns the target file.
func (w *Writer) Path() string { return w.path }

// PublishState writes state to a temp file in the same directory and renames
// it over the target, so readers never see a partial snapshot.
func (w *Writer) PublishState(_ context.Context, state model.BotState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" {
		return errors.New("statefile: empty path")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("statefile: marshal: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("statefile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("statefile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statefile: close: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statefile: rename: %w", err)
	}
	return nil
}

// Read loads the current snapshot. ok is false when the file does not exist.
func (w *Writer) Read() (state model.BotState, ok bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, false, nil
	}
	if err != nil {
		return state, false, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, false, fmt.Errorf("statefile: parse: %w", err)
	}
	return state, true, nil
}
