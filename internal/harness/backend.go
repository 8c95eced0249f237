package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/roach88/fakedb/internal/docstore"
	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/sqlstore"
	"github.com/roach88/fakedb/internal/value"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Backend is the document store contract every implementation is held to.
type Backend interface {
	FindByID(ctx context.Context, key string) (value.Object, bool, error)
	FindOne(ctx context.Context, args fakedb.FindArgs[value.Object]) (value.Object, bool, error)
	FindMany(ctx context.Context, args fakedb.FindArgs[value.Object]) ([]value.Object, error)
	Insert(ctx context.Context, doc value.Object) error
	InsertMany(ctx context.Context, docs []value.Object) error
	Update(ctx context.Context, doc value.Object) error
	UpdateMany(ctx context.Context, args fakedb.UpdateArgs[value.Object]) error
	DeleteByID(ctx context.Context, key string) (value.Object, bool, error)
	DeleteMany(ctx context.Context, matcher fakedb.Matcher[value.Object]) ([]value.Object, error)
	Snapshot(ctx context.Context) (map[string]value.Object, error)
	Close() error
}

// memoryBackend adapts the in-memory store. It never blocks, so contexts
// are ignored.
type memoryBackend struct {
	db *docstore.Store
}

func (m memoryBackend) FindByID(_ context.Context, key string) (value.Object, bool, error) {
	return m.db.FindByID(key)
}

func (m memoryBackend) FindOne(_ context.Context, args fakedb.FindArgs[value.Object]) (value.Object, bool, error) {
	return m.db.FindOne(args)
}

func (m memoryBackend) FindMany(_ context.Context, args fakedb.FindArgs[value.Object]) ([]value.Object, error) {
	return m.db.FindMany(args)
}

func (m memoryBackend) Insert(_ context.Context, doc value.Object) error {
	return m.db.Insert(doc)
}

func (m memoryBackend) InsertMany(_ context.Context, docs []value.Object) error {
	return m.db.InsertMany(docs)
}

func (m memoryBackend) Update(_ context.Context, doc value.Object) error {
	return m.db.Update(doc)
}

func (m memoryBackend) UpdateMany(_ context.Context, args fakedb.UpdateArgs[value.Object]) error {
	return m.db.UpdateMany(args)
}

func (m memoryBackend) DeleteByID(_ context.Context, key string) (value.Object, bool, error) {
	return m.db.DeleteByID(key)
}

func (m memoryBackend) DeleteMany(_ context.Context, matcher fakedb.Matcher[value.Object]) ([]value.Object, error) {
	return m.db.DeleteMany(matcher)
}

func (m memoryBackend) Snapshot(context.Context) (map[string]value.Object, error) {
	return m.db.Snapshot()
}

func (memoryBackend) Close() error { return nil }

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// openBackend creates a fresh, empty backend for one scenario run.
// Each backend gets its own identifier instance so sequences start at 1.
func openBackend(name string, scenario *Scenario, opts Options) (Backend, error) {
	identifier, err := docstore.ParseIdentifier(scenario.Identifier)
	if err != nil {
		return nil, err
	}

	switch name {
	case BackendMemory:
		return memoryBackend{db: docstore.New(identifier, fakedb.WithLogger(opts.Logger))}, nil
	case BackendSQLite:
		path, err := sqlitePath(opts.SQLiteDir, scenario.Name)
		if err != nil {
			return nil, err
		}
		st, err := sqlstore.Open(path, identifier, sqlstore.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// sqlitePath returns ":memory:" or a fresh database file under dir.
func sqlitePath(dir, scenario string) (string, error) {
	if dir == "" || dir == ":memory:" {
		return ":memory:", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sqlite dir: %w", err)
	}
	path := filepath.Join(dir, unsafeFileChars.ReplaceAllString(scenario, "_")+".db")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reset sqlite database: %w", err)
		}
	}
	return path, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
