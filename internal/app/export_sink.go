package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// ExportSink delivers serialized exports. DirectorySink writes one file per
// document into a target directory; DownloadSink hands a single blob to an
// injected save callback (the CLI wires it to a plain file write, other
// frontends can wire a picker). Unlike the store, sinks surface failures:
// a caller is expected to fall back to another delivery mode.
type ExportSink interface {
	WriteFile(name, content string) error
}

const maxFilenameRunes = 64

// SanitizeFilename strips path separators, reserved punctuation and control
// characters from a candidate filename and bounds its length. The result is
// never empty.
func SanitizeFilename(name string) string {
	var buf strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			// dropped
		case unicode.IsControl(r):
			// dropped
		default:
			buf.WriteRune(r)
		}
	}
	out := strings.Trim(strings.TrimSpace(buf.String()), ".")
	if r := []rune(out); len(r) > maxFilenameRunes {
		out = string(r[:maxFilenameRunes])
	}
	if out == "" {
		return "chat"
	}
	return out
}

// ChatFilename derives a deterministic per-chat filename from title and id.
func ChatFilename(chat Chat, ext string) string {
	id := chat.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s%s", SanitizeFilename(chat.Title), SanitizeFilename(id), ext)
}

type DirectorySink struct {
	Root string
}

func NewDirectorySink(root string) (*DirectorySink, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("export directory not set")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("export directory %s not writable: %w", root, err)
	}
	return &DirectorySink{Root: root}, nil
}

func (s *DirectorySink) WriteFile(name, content string) error {
	path := filepath.Join(s.Root, SanitizeFilename(name))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write export file %s: %w", path, err)
	}
	return nil
}

// DownloadSink delivers a single file through a save callback.
type DownloadSink struct {
	Save func(filename, content string) error
}

func (s *DownloadSink) WriteFile(name, content string) error {
	if s.Save == nil {
		return fmt.Errorf("download sink has no save handler")
	}
	if err := s.Save(SanitizeFilename(name), content); err != nil {
		return fmt.Errorf("deliver download %s: %w", name, err)
	}
	return nil
}

// ExportChatsToSink writes one markdown document per chat plus an index.json
// manifest. It stops on the first write failure so the caller can fall back
// to single-file delivery.
func ExportChatsToSink(sink ExportSink, st StoreState, now time.Time) error {
	for _, chat := range st.Chats {
		if err := sink.WriteFile(ChatFilename(chat, ".md"), ExportChatMarkdown(chat)); err != nil {
			return err
		}
	}
	index, err := ExportIndex(st, now)
	if err != nil {
		return err
	}
	return sink.WriteFile("index.json", string(index))
}
