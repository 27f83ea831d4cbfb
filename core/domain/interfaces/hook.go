package interfaces

import (
	"context"

	"github.com/hyperterse/sqltask/core/domain"
)

// Hook runs SQL against the database behind one connection profile
type Hook interface {
	// Run opens a connection, executes every statement in order with the given
	// parameters and closes the connection. Commit behaviour when autocommit is
	// false is defined by the hook implementation.
	Run(ctx context.Context, sql domain.SQL, autocommit bool, params domain.Parameters) error
}

// Pinger is implemented by hooks that can check connectivity without running SQL
type Pinger interface {
	Ping(ctx context.Context) error
}

// HookFactory creates hooks bound to a connection id
type HookFactory interface {
	// NewHook resolves connID and returns a fresh hook for it
	NewHook(ctx context.Context, connID string) (Hook, error)
}

// ConnectionResolver looks up connection profiles by id
type ConnectionResolver interface {
	// Resolve returns the connection profile registered under connID
	Resolve(connID string) (*domain.Connection, error)

	// List returns all known connection profiles, sorted by name
	List() []*domain.Connection
}
