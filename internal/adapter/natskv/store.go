// Package natskv implements the workspace state port using NATS JetStream
// KV. One bucket holds one opaque value per workspace key, so index state
// carries over between sessions.
package natskv

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go/jetstream"
)

// Store wraps a JetStream KeyValue bucket as a state store.
type Store struct {
	kv jetstream.KeyValue
}

// New creates a NATS KV-backed state store.
func New(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv}
}

// Get returns the value for key, with ok=false when absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(entry.Value()), true, nil
}

// Set stores the value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.kv.Put(ctx, key, []byte(value))
	return err
}
