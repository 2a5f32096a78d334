// Package backend wires the record store to its storage and event sinks.
package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// CleanupFunc releases what a backend holds.
type CleanupFunc func(ctx context.Context) error

// BackendResult holds an opened store and the resources behind it.
type BackendResult struct {
	Store *store.Store
	KV    storage.KV
	// Publisher is nil when change events are disabled.
	Publisher *amqp.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// FlushOnClose writes every key on Cleanup. Only the process that owns
	// the data sets it; short-lived commands rely on per-key writes so they
	// never overwrite newer state from a running server.
	FlushOnClose bool

	// AMQP.URL empty disables change events.
	AMQP amqp.Config

	Sheets google.Config
}

// BackendType names a KV implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
