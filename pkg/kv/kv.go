// Package kv is the string key-value substrate the editor persists into.
// It mirrors the browser's localStorage contract: whole values are read and
// replaced by key, never patched.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable wraps every backend failure (driver error, disabled storage, closed connection).
	ErrUnavailable = errors.New("kv: storage unavailable")
	// ErrQuotaExceeded is returned when a write would exceed the backend's capacity.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Storage gets and sets string values by key.
// GetItem reports ok=false with a nil error when the key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
