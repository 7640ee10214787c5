package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriterAppendsBlocksInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_100.srt")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer writer.Close()

	first := NewRecord(1, 0, time.Second, "one")
	second := NewRecord(2, time.Second, 2*time.Second, "two")
	if err := writer.Append(first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := writer.Append(second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(data) != first.Block()+second.Block() {
		t.Fatalf("unexpected transcript contents:\n%s", data)
	}
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_100.srt")

	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Append(NewRecord(1, 0, time.Second, "before restart")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewWriter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Append(NewRecord(2, time.Second, 2*time.Second, "after restart")); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(data), "before restart") || !strings.Contains(string(data), "after restart") {
		t.Fatalf("reopen truncated transcript:\n%s", data)
	}
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	writer, err := NewWriter(filepath.Join(t.TempDir(), "x.srt"))
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := writer.Append(NewRecord(1, 0, 0, "late")); err == nil {
		t.Fatal("append after close should fail")
	}
}

func TestWriterCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "1_1.srt")
	writer, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer writer.Close()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("parent dir missing: %v", err)
	}
}
