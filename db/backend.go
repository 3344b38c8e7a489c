// ABOUTME: Durable state backend contract and DSN-based backend selection
// ABOUTME: Memory and JSON-file backends live here; networked backends have their own files
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBackend loads and saves the whole workspace snapshot.
// Load returns (nil, nil) when no snapshot has been saved yet.
type StateBackend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// OpenBackend builds a backend from a DSN. A bare path is treated as a sqlite database.
func OpenBackend(ctx context.Context, dsn string) (StateBackend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("state dsn is required")
	}
	if !strings.Contains(dsn, "://") {
		return OpenSQLiteBackend(dsn)
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse state dsn: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "memory", "mem":
		return NewMemoryBackend(), nil
	case "file":
		return NewFileBackend(dsnPath(dsn, scheme)), nil
	case "sqlite", "sqlite3":
		return OpenSQLiteBackend(dsnPath(dsn, scheme))
	case "badger":
		return OpenBadgerBackend(dsnPath(dsn, scheme))
	case "charm":
		return OpenCharmBackend(parsed)
	case "redis", "rediss":
		return OpenRedisBackend(ctx, dsn)
	case "postgres", "postgresql":
		return NewPostgresBackend(dsn)
	case "s3":
		return OpenS3Backend(ctx, parsed)
	default:
		return nil, fmt.Errorf("unsupported state backend scheme: %s", scheme)
	}
}

func dsnPath(dsn, scheme string) string {
	path := dsn[len(scheme)+len("://"):]
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// MemoryBackend keeps an encoded copy of the last saved snapshot.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(_ context.Context) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, nil
	}
	return DecodeSnapshot(b.data)
}

func (b *MemoryBackend) Save(_ context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

// FileBackend writes the snapshot as one JSON document, replaced atomically.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: strings.TrimSpace(path)}
}

func (b *FileBackend) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return DecodeSnapshot(data)
}

func (b *FileBackend) Save(_ context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}

func (b *FileBackend) Close() error {
	return nil
}
