// Package backend builds the tax data provider selected by configuration:
// built-in tables, a SQLite database or a YAML directory, behind an
// in-process or Redis cache.
package backend

import (
	"context"
	"time"

	"finplan/internal/taxdata"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the provider and its lifecycle hooks.
type BackendResult struct {
	Provider taxdata.Provider
	// Ready reports whether the backend's dependencies are reachable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates providers based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	// SeedBuiltin fills an empty SQLite database with the built-in tables.
	SeedBuiltin bool

	// File specific
	DataDirectory string

	// Cache. A zero CacheSize disables caching.
	RedisAddr string
	CacheTTL  time.Duration
	CacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	FileBackend   BackendType = "file"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, FileBackend:
		return true
	default:
		return false
	}
}
