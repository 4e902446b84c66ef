// Package broadcast defines the port for pushing status events to attached
// editor clients.
package broadcast

import "context"

// Broadcaster sends a typed event to every attached client. Delivery is
// best-effort; a client that cannot keep up is dropped, not waited on.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
