package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend is the narrow persistence contract the chat store runs on: atomic
// get/set of one serialized blob under a fixed key. No transactions, no
// compare-and-swap. A stronger backend can be substituted without touching
// the store operations.
type Backend interface {
	// Get returns the current blob. The second result is false when nothing
	// has been written yet.
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, blob []byte) error
}

func DefaultStorageRoot() string {
	// Prefer XDG data dir (Linux/macOS). If unavailable, fall back to ~/.local/share.
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "lchat", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "lchat", "storage")
	}
	return filepath.Join(os.TempDir(), "lchat", "storage")
}

// FileBackend keeps the blob in a single JSON file under the storage root.
type FileBackend struct {
	Path string
}

func NewFileBackend(root string) *FileBackend {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	return &FileBackend{Path: filepath.Join(root, StoreKey+".json")}
}

func (b *FileBackend) Get(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBackend) Set(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(b.Path, blob, 0o644)
}

// MemoryBackend is an in-process backend used by tests and throwaway sessions.
type MemoryBackend struct {
	mu   sync.Mutex
	blob []byte
	set  bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Get(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		return nil, false, nil
	}
	return append([]byte(nil), b.blob...), true, nil
}

func (b *MemoryBackend) Set(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blob = append([]byte(nil), blob...)
	b.set = true
	return nil
}
