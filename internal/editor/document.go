package editor

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Document is the host text buffer surface consumed by the fix engine.
// Replacements are atomic: either the whole edit commits or none of it does.
type Document interface {
	Path() string
	Text() string
	LineCount() int
	Line(index int) (string, error)
	ReplaceRange(start, end int, replacement string) error
	ReplaceLine(index int, replacement string) error
}

// Buffer is a file-backed Document. Edits mutate memory only; Flush writes
// the buffer back to disk. Individual accesses are safe across goroutines;
// callers that need a read to observe a prior edit must still sequence the
// two operations themselves.
type Buffer struct {
	mu    sync.Mutex
	path  string
	text  string
	dirty bool
}

func NewBuffer(path string, text string) *Buffer {
	return &Buffer{path: path, text: text}
}

func OpenBuffer(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return NewBuffer(path, string(data)), nil
}

func (b *Buffer) Path() string { return b.path }

func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Buffer) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// lines splits the current text; the caller must hold b.mu.
func (b *Buffer) lines() []string {
	return strings.Split(b.text, "\n")
}

func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines())
}

// Line returns the content of a 0-based line without its terminator.
func (b *Buffer) Line(index int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.lines()
	if index < 0 || index >= len(lines) {
		return "", fmt.Errorf("line %d out of range (document has %d lines)", index, len(lines))
	}
	return lines[index], nil
}

// ReplaceRange swaps the byte span [start, end) for the replacement text.
func (b *Buffer) ReplaceRange(start, end int, replacement string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start < 0 || end > len(b.text) || start > end {
		return fmt.Errorf("invalid range [%d, %d) for document of %d bytes", start, end, len(b.text))
	}
	b.text = b.text[:start] + replacement + b.text[end:]
	b.dirty = true
	return nil
}

// ReplaceLine swaps the full content of a 0-based line.
func (b *Buffer) ReplaceLine(index int, replacement string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.lines()
	if index < 0 || index >= len(lines) {
		return fmt.Errorf("line %d out of range (document has %d lines)", index, len(lines))
	}
	lines[index] = replacement
	b.text = strings.Join(lines, "\n")
	b.dirty = true
	return nil
}

// Slice extracts an inclusive 1-based line range, for selection review.
func (b *Buffer) Slice(startLine, endLine int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.lines()
	if startLine < 1 || endLine > len(lines) || startLine > endLine {
		return "", fmt.Errorf("invalid selection %d:%d (document has %d lines)", startLine, endLine, len(lines))
	}
	return strings.Join(lines[startLine-1:endLine], "\n"), nil
}

// Flush writes the buffer back to its file when it has pending edits.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return nil
	}
	if err := os.WriteFile(b.path, []byte(b.text), 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	b.dirty = false
	return nil
}
