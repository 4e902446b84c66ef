package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// sinkHandler counts delivered records, optionally slowing delivery down to
// force backpressure.
type sinkHandler struct {
	mu    sync.Mutex
	seen  int
	attrs []slog.Attr
	slow  time.Duration
}

func (s *sinkHandler) Enabled(context.Context, slog.Level) bool { return true }

func (s *sinkHandler) Handle(_ context.Context, _ slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if s.slow > 0 {
		time.Sleep(s.slow)
	}
	s.mu.Lock()
	s.seen++
	s.mu.Unlock()
	return nil
}

func (s *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	s.mu.Lock()
	s.attrs = append(s.attrs, attrs...)
	s.mu.Unlock()
	return s
}

func (s *sinkHandler) WithGroup(string) slog.Handler { return s }

func (s *sinkHandler) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

func emit(h *AsyncHandler, n int) {
	for range n {
		rec := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
		_ = h.Handle(context.Background(), rec)
	}
}

func TestAsyncHandlerDeliversAndDrains(t *testing.T) {
	sink := &sinkHandler{}
	h := NewAsyncHandler(sink, 256, 2)

	emit(h, 100)
	h.Close()

	if got := sink.delivered(); got != 100 {
		t.Fatalf("delivered = %d, want 100", got)
	}
	if d := h.DroppedCount(); d != 0 {
		t.Errorf("DroppedCount() = %d, want 0", d)
	}
}

func TestAsyncHandlerConcurrentEmitters(t *testing.T) {
	const emitters, each = 50, 40

	sink := &sinkHandler{}
	h := NewAsyncHandler(sink, emitters*each, 4)

	var wg sync.WaitGroup
	for range emitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emit(h, each)
		}()
	}
	wg.Wait()
	h.Close()

	if got := sink.delivered(); got != emitters*each {
		t.Fatalf("delivered = %d, want %d", got, emitters*each)
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	sink := &sinkHandler{slow: 10 * time.Millisecond}
	h := NewAsyncHandler(sink, 1, 1)

	emit(h, 50)
	h.Close()

	if h.DroppedCount() == 0 {
		t.Fatal("expected drops with a full buffer and a slow sink")
	}
	if h.DroppedCount()+int64(sink.delivered()) != 50 {
		t.Errorf("dropped %d + delivered %d != 50", h.DroppedCount(), sink.delivered())
	}
}

func TestAsyncHandlerWithAttrsSharesBuffer(t *testing.T) {
	sink := &sinkHandler{}
	h := NewAsyncHandler(sink, 64, 1)

	child, ok := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(*AsyncHandler)
	if !ok {
		t.Fatal("WithAttrs did not return an *AsyncHandler")
	}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	_ = child.Handle(context.Background(), rec)
	h.Close()

	if got := sink.delivered(); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
	if child.DroppedCount() != h.DroppedCount() {
		t.Error("child and parent should share the dropped counter")
	}
}
