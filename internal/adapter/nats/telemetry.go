package nats

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Reporter publishes telemetry events to JetStream subjects
// telemetry.<name>. Events are fire-and-forget: failures are logged and
// swallowed so no caller ever blocks on telemetry.
type Reporter struct {
	conn *Conn
}

// NewReporter creates a telemetry reporter over the given connection.
func NewReporter(conn *Conn) *Reporter {
	return &Reporter{conn: conn}
}

// Event publishes one telemetry event.
func (r *Reporter) Event(ctx context.Context, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("telemetry marshal failed", "event", name, "error", err)
		return
	}
	if err := r.conn.Publish(ctx, "telemetry."+name, data); err != nil {
		slog.Warn("telemetry publish failed", "event", name, "error", err)
	}
}
