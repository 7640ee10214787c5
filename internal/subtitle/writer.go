package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends subtitle blocks to one session transcript.
//
// The file is opened in append mode: if a transcript for the same session
// already exists (daemon restart inside one online period) previously
// persisted sentences are kept and new ones follow them. Every Append is
// followed by a sync so a hard kill cannot lose acknowledged sentences.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewWriter opens (or creates) the transcript at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure transcript dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript %s: %w", path, err)
	}
	return &Writer{path: path, file: file}, nil
}

// Append writes the record's block and flushes it to disk.
func (w *Writer) Append(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.file == nil {
		return fmt.Errorf("transcript %s: writer closed", w.path)
	}
	if _, err := w.file.WriteString(record.Block()); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	return nil
}

// Close releases the file handle. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Path returns the transcript location.
func (w *Writer) Path() string {
	return w.path
}
