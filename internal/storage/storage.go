package storage

import (
	"context"
	"fmt"
	"strings"
)

// Store is a durable string key/value store. Values are opaque to the store;
// callers encode them (JSON in practice).
type Store interface {
	// Get returns the stored value for key, or def when the key is absent or
	// the backend cannot be read. It never fails.
	Get(ctx context.Context, key, def string) string
	// Set stores value under key. Failures are returned as *WriteError.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// WriteError reports a rejected or failed write for a single key.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

const (
	sqlitePrefix = "sqlite:"
	memoryPrefix = "memory:"
)

// Open selects a backend from a DSN: "sqlite:PATH" opens a SQLite database,
// "memory:" an in-process map and anything else is treated as a JSON file path.
func Open(dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, sqlitePrefix):
		path, err := expandTilde(strings.TrimPrefix(dsn, sqlitePrefix))
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)
	case strings.HasPrefix(dsn, memoryPrefix):
		return NewMemoryStore(), nil
	default:
		return NewOrExistingFileStore(dsn)
	}
}
