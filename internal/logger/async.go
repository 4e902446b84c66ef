package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// asyncCore is the shared queue behind an AsyncHandler and every handler
// derived from it via WithAttrs/WithGroup.
type asyncCore struct {
	queue   chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
}

type queued struct {
	rec  slog.Record
	dest slog.Handler
}

// AsyncHandler decouples log emission from log writing via a buffered
// channel. Records are dropped, not blocked on, when the buffer is full:
// the host must never stall the supervisor because a log sink is slow.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// NewAsyncHandler creates an AsyncHandler with the given buffer capacity
// and worker count.
func NewAsyncHandler(inner slog.Handler, bufSize, workers int) *AsyncHandler {
	core := &asyncCore{queue: make(chan queued, bufSize)}
	for range workers {
		core.wg.Add(1)
		go func() {
			defer core.wg.Done()
			for q := range core.queue {
				_ = q.dest.Handle(context.Background(), q.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, core: core}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the buffer is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.core.queue <- queued{rec: rec, dest: h.inner}:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler over the same queue wrapping the attributed
// inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

// WithGroup returns a handler over the same queue wrapping the grouped
// inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close closes the buffer and waits for the workers to drain it.
func (h *AsyncHandler) Close() {
	close(h.core.queue)
	h.core.wg.Wait()
}
