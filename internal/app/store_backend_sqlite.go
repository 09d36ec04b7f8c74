package app

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps the serialized store blob in a sqlite kv table. It
// offers the same whole-blob get/set contract as FileBackend; sqlite's own
// locking makes individual reads and writes atomic, but read-modify-write
// cycles above it still race (last writer wins).
type SQLiteBackend struct {
	dbPath string

	once sync.Once
	db   *sql.DB
	err  error
}

func NewSQLiteBackend(root string) (*SQLiteBackend, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	b := &SQLiteBackend{dbPath: filepath.Join(root, "lchat.db")}
	// Initialize eagerly so callers fail fast.
	if err := b.init(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) init() error {
	b.once.Do(func() {
		db, err := sql.Open("sqlite", b.dbPath)
		if err != nil {
			b.err = err
			return
		}
		// Keep sqlite responsive under contention.
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`); err != nil {
			_ = db.Close()
			b.err = err
			return
		}
		b.db = db
	})
	return b.err
}

func (b *SQLiteBackend) Get(ctx context.Context) ([]byte, bool, error) {
	if err := b.init(); err != nil {
		return nil, false, err
	}
	var blob []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, StoreKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, blob []byte) error {
	if err := b.init(); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		StoreKey, blob)
	return err
}

func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
