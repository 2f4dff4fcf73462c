// Package output persists the text artifact a script run produces.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is where FileSink writes when no path is configured.
const DefaultPath = "layout.html"

// Sink stores the final artifact of a run. Each Persist replaces whatever a
// previous call stored.
type Sink interface {
	Persist(text string) error
}

// OutputWriteError reports that the artifact could not be written. It is
// fatal for the run that hit it.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write output %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

// FileSink writes the artifact to a single file.
type FileSink struct {
	Path string
	Perm os.FileMode
}

// NewFileSink returns a sink writing to path, or DefaultPath if path is empty.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultPath
	}
	return &FileSink{Path: path, Perm: 0o644}
}

// Persist replaces the file's contents with text. The text goes to a
// temporary file in the same directory first and is renamed over the target,
// so readers never see a half-written artifact.
func (s *FileSink) Persist(text string) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return &OutputWriteError{Path: s.Path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &OutputWriteError{Path: s.Path, Err: err}
	}
	if err := tmp.Chmod(s.perm()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &OutputWriteError{Path: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &OutputWriteError{Path: s.Path, Err: err}
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return &OutputWriteError{Path: s.Path, Err: err}
	}
	return nil
}

func (s *FileSink) perm() os.FileMode {
	if s.Perm == 0 {
		return 0o644
	}
	return s.Perm
}

// MemorySink keeps the last persisted text in memory.
type MemorySink struct {
	mu     sync.Mutex
	text   string
	writes int
}

func (m *MemorySink) Persist(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

// Text returns the last persisted text.
func (m *MemorySink) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many times Persist was called.
func (m *MemorySink) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
