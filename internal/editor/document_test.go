package editor

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestReplaceRange(t *testing.T) {
	buf := NewBuffer("x.go", "alpha beta gamma")
	if err := buf.ReplaceRange(6, 10, "BETA"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if buf.Text() != "alpha BETA gamma" {
		t.Fatalf("unexpected text: %q", buf.Text())
	}
	if !buf.Dirty() {
		t.Fatalf("expected dirty buffer")
	}
}

func TestReplaceRangeRejectsBadBounds(t *testing.T) {
	buf := NewBuffer("x.go", "short")
	if err := buf.ReplaceRange(2, 99, "nope"); err == nil {
		t.Fatalf("expected range error")
	}
	if buf.Text() != "short" {
		t.Fatalf("failed replace must not mutate: %q", buf.Text())
	}
}

func TestReplaceLine(t *testing.T) {
	buf := NewBuffer("x.go", "one\ntwo\nthree")
	if err := buf.ReplaceLine(1, "TWO"); err != nil {
		t.Fatalf("replace line failed: %v", err)
	}
	if buf.Text() != "one\nTWO\nthree" {
		t.Fatalf("unexpected text: %q", buf.Text())
	}
	if err := buf.ReplaceLine(7, "x"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSlice(t *testing.T) {
	buf := NewBuffer("x.go", "one\ntwo\nthree\nfour")
	selection, err := buf.Slice(2, 3)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if selection != "two\nthree" {
		t.Fatalf("unexpected selection: %q", selection)
	}
	if _, err := buf.Slice(3, 2); err == nil {
		t.Fatalf("expected inverted range error")
	}
}

func TestConcurrentReadsAndEdits(t *testing.T) {
	buf := NewBuffer("x.go", strings.Repeat("line\n", 50)+"end")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = buf.Text()
				_ = buf.LineCount()
			}
		}()
		go func(line int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if err := buf.ReplaceLine(line, "edited"); err != nil {
					t.Errorf("replace line failed: %v", err)
					return
				}
			}
		}(i * 10)
	}
	wg.Wait()

	if buf.LineCount() != 51 {
		t.Fatalf("edits must never change the line count: %d", buf.LineCount())
	}
}

func TestOpenAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.py")
	if err := os.WriteFile(path, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	buf, err := OpenBuffer(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := buf.ReplaceLine(0, "print('bye')"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := buf.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "print('bye')\n" {
		t.Fatalf("unexpected file content: %q", string(data))
	}
}
