package ws

import (
	"context"
	"testing"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("expected non-nil hub")
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub()

	// Broadcast with no connections should not panic.
	hub.Broadcast(context.Background(), Message{
		Type:    "test",
		Payload: []byte(`{"key":"value"}`),
	})
}

func TestHubBroadcastEventNoConnections(t *testing.T) {
	hub := NewHub()

	// BroadcastEvent with no connections should not panic.
	hub.BroadcastEvent(context.Background(), EventSupportNotice, SupportNoticeEvent{
		Message: "symbol index is incomplete",
		Remote:  false,
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub()

	// A channel cannot be marshaled to JSON — should log error, not panic.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub()

	// Removing a connection that was never added should not panic.
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &conn{ws: nil, cancel: cancel}
	hub.remove(c)
}
