package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Target is an append-only text file receiving dumped lines
type Target struct {
	path string
	mu   sync.Mutex
}

// NewTarget creates a target for path. The file is created on first append.
func NewTarget(path string) *Target {
	return &Target{path: path}
}

// Path returns the file path of the target
func (t *Target) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Append writes lines joined by "\n" plus a trailing newline in a single
// write. An empty batch writes nothing.
func (t *Target) Append(lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if dir := filepath.Dir(t.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", t.path, err)
	}

	_, err = f.WriteString(strings.Join(lines, "\n") + "\n")
	closeErr := f.Close()

	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", t.path, err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", t.path, closeErr)
	}
	return nil
}
