// Package backend builds the persistence store and the optional ledger
// event publisher the server runs on.
package backend

import (
	"context"

	"khetbook/internal/repository"
	"khetbook/internal/services"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Result is a ready backend. Publisher is nil when events are disabled.
type Result struct {
	Store     repository.Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Ledger events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type names a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}
