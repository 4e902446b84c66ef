// Package telemetry defines the port for fire-and-forget telemetry events.
package telemetry

import "context"

// Reporter publishes telemetry events. Implementations must never block
// callers on delivery failures; events are best-effort.
type Reporter interface {
	Event(ctx context.Context, name string, payload any)
}
