// Package storage provides the durable key/value stores behind the client's
// conversation history.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a small durable key/value store. Values are opaque documents.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns a SQLite store for paths ending in .db, .sqlite or .sqlite3 and a
// directory-backed file store otherwise.
func Open(path string) (KV, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteKV(path)
	default:
		return NewFileKV(path)
	}
}
