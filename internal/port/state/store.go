// Package state defines the port for workspace-scoped persisted state.
package state

import "context"

// Store persists small opaque values keyed per workspace. Values survive
// host restarts so index state can be reused across sessions.
type Store interface {
	// Get returns the value for key, with ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores the value for key.
	Set(ctx context.Context, key, value string) error
}
