package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxelcircuit.ai/internal/diag"
)

func TestDiagLogger_ArchivesLevels(t *testing.T) {
	dir := t.TempDir()
	l := NewDiagLogger(dir, "run-1")
	l.w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	var sink diag.Sink = l
	diag.Errorf(sink, "unreachable output due to running out of signal power: %s", "(0,0,0) -> (20,0,0)")
	diag.Warnf(sink, "output y is not connected to any input")
	diag.Infof(sink, "check done")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	entries, err := ReadDiag(filepath.Join(dir, "diag-2026-03-04-05.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadDiag: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries=%v", entries)
	}
	want := []struct{ level, line string }{
		{"error", "unreachable output due to running out of signal power: (0,0,0) -> (20,0,0)"},
		{"warning", "output y is not connected to any input"},
		{"info", "check done"},
	}
	for i, w := range want {
		if entries[i].Level != w.level || entries[i].Line != w.line || entries[i].RunID != "run-1" {
			t.Fatalf("entry %d = %+v", i, entries[i])
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "diag")
	now := time.Date(2026, 1, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(DiagEntry{Line: "a"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(DiagEntry{Line: "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "diag-*.jsonl.zst"))
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	for _, f := range files {
		entries, err := ReadDiag(f)
		if err != nil || len(entries) != 1 {
			t.Fatalf("%s: entries=%v err=%v", f, entries, err)
		}
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) }
	for _, line := range []string{"first", "second"} {
		w := NewJSONLZstdWriter(dir, "diag")
		w.now = fixed
		if err := w.Write(DiagEntry{Line: line}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	path := filepath.Join(dir, "diag-2026-01-01-10.jsonl.zst")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
	entries, err := ReadDiag(path)
	if err != nil || len(entries) != 2 || entries[1].Line != "second" {
		t.Fatalf("entries=%v err=%v", entries, err)
	}
}
