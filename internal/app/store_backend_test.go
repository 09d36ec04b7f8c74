package app

import (
	"context"
	"testing"
)

func testBackendContract(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := backend.Get(ctx)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if ok {
		t.Fatalf("expected no blob before first write")
	}

	if err := backend.Set(ctx, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	blob, ok, err := backend.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(blob) != `{"version":1}` {
		t.Fatalf("got %q ok=%v", blob, ok)
	}

	// Whole-blob replacement, last write wins.
	if err := backend.Set(ctx, []byte(`{"version":1,"chats":[]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	blob, _, err = backend.Get(ctx)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(blob) != `{"version":1,"chats":[]}` {
		t.Fatalf("overwrite lost: %q", blob)
	}
}

func TestMemoryBackend(t *testing.T) {
	testBackendContract(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	testBackendContract(t, NewFileBackend(t.TempDir()))
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLiteBackend(t.TempDir())
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	defer backend.Close()
	testBackendContract(t, backend)
}

func TestFileBackendSharedBetweenStores(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	// Two stores on the same file, as two processes would be.
	first := NewChatStore(NewFileBackend(root))
	second := NewChatStore(NewFileBackend(root))

	_, id, err := first.CreateChat(ctx, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	st, err := second.GetState(ctx)
	if err != nil {
		t.Fatalf("get from second store: %v", err)
	}
	if findChat(&st, id) == nil {
		t.Fatalf("second store does not see first store's write")
	}
}
