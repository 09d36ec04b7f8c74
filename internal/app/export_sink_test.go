package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(`a/b:c*d?e`)
	if got == "" {
		t.Fatalf("sanitized name is empty")
	}
	if strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Fatalf("unsafe characters survived: %q", got)
	}

	if got := SanitizeFilename(`///***`); got != "chat" {
		t.Fatalf("all-unsafe input = %q, want fallback", got)
	}

	long := SanitizeFilename(strings.Repeat("a", 500))
	if len([]rune(long)) > maxFilenameRunes {
		t.Fatalf("length not capped: %d", len([]rune(long)))
	}
}

func TestChatFilename(t *testing.T) {
	chat := Chat{ID: "0123456789abcdef", Title: `plan: q3/q4 *draft*`}
	name := ChatFilename(chat, ".md")
	if strings.ContainsAny(name, `/\:*?"<>|`) {
		t.Fatalf("unsafe filename: %q", name)
	}
	if !strings.HasSuffix(name, "-01234567.md") {
		t.Fatalf("missing id suffix: %q", name)
	}
}

func TestDirectorySinkWritesFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirectorySink(filepath.Join(dir, "exports"))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.WriteFile("a:b.md", "content"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "exports", "ab.md"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("content = %q", data)
	}
}

func TestDownloadSinkRequiresHandler(t *testing.T) {
	sink := &DownloadSink{}
	if err := sink.WriteFile("x.json", "{}"); err == nil {
		t.Fatalf("expected error without save handler")
	}

	var gotName, gotContent string
	sink = &DownloadSink{Save: func(name, content string) error {
		gotName, gotContent = name, content
		return nil
	}}
	if err := sink.WriteFile(`bad:name.json`, "{}"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if gotName != "badname.json" || gotContent != "{}" {
		t.Fatalf("delivered %q / %q", gotName, gotContent)
	}

	sink = &DownloadSink{Save: func(string, string) error { return errors.New("denied") }}
	if err := sink.WriteFile("x.json", "{}"); err == nil {
		t.Fatalf("handler failure must propagate")
	}
}

func TestExportChatsToSink(t *testing.T) {
	st := exportFixture(t)
	dir := t.TempDir()
	sink, err := NewDirectorySink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := ExportChatsToSink(sink, st, time.UnixMilli(1700000100000)); err != nil {
		t.Fatalf("export: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	// One markdown file per chat plus the index manifest.
	if len(entries) != len(st.Chats)+1 {
		t.Fatalf("expected %d files, got %d", len(st.Chats)+1, len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); err != nil {
		t.Fatalf("missing index: %v", err)
	}
}
