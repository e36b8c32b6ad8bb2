// Package kv provides the durable key/value slots the audit log is saved to.
//
// A Store holds opaque byte values under string keys. Backends:
//
//   - memory: process-local map, lost on exit
//   - file: one JSON file per key in a directory
//   - sqlite: a single table in a SQLite database file (pure Go driver)
//   - postgres: a single table reached through a pgx connection pool
//
// Open selects a backend from Options.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get for a key that has never been set or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable key/value slot.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendPostgres}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Path is the directory (file) or database file (sqlite).
	Path string

	// DatabaseURL is the PostgreSQL connection string (postgres).
	DatabaseURL string

	// MaxConns caps the postgres pool size. Zero keeps the pgx default.
	MaxConns int32
}

// Open creates the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(opts.Path)
	case BackendSQLite:
		s, err = OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		s, err = OpenPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
	default:
		err = fmt.Errorf("kv: unknown backend %q (want one of %s)",
			opts.Backend, strings.Join(Backends, ", "))
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MemoryStore keeps values in a map. Values are copied on the way in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
