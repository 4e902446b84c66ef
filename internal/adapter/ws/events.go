package ws

// Event type constants for WebSocket messages.
const (
	EventServerStatus  = "server.status"
	EventIndexProgress = "index.progress"
	EventSupportNotice = "support.notice"
)

// ServerStatusEvent is broadcast when the analysis server's state changes.
type ServerStatusEvent struct {
	State     string   `json:"state"` // "running" | "stopped" | "disabled" | "failed"
	Languages []string `json:"languages"`
	PID       int      `json:"pid,omitempty"`
}

// IndexProgressEvent is broadcast during bulk workspace initialization.
type IndexProgressEvent struct {
	Found int `json:"found"`
	Sent  int `json:"sent"`
}

// SupportNoticeEvent is broadcast when language support is partial or
// inaccurate, e.g. because indexing was capped. The notice is persistent:
// editors keep showing it until the next server start clears it.
type SupportNoticeEvent struct {
	Message string `json:"message"`
	Remote  bool   `json:"remote"`
}
