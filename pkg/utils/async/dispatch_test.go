package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/psteco/hnat/pkg/utils/async"
)

// safeBuffer is a thread-safe buffer for concurrent logging
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *safeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

// syncHandler is a slog.Handler that signals when a log is written
type syncHandler struct {
	handler slog.Handler
	done    chan struct{}
}

func newSyncHandler(buf *safeBuffer) *syncHandler {
	return &syncHandler{
		handler: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: slog.LevelError,
		}),
		done: make(chan struct{}, 1),
	}
}

func (h *syncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *syncHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.handler.Handle(ctx, r)
	select {
	case h.done <- struct{}{}:
	default:
	}
	return err
}

func (h *syncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &syncHandler{
		handler: h.handler.WithAttrs(attrs),
		done:    h.done,
	}
}

func (h *syncHandler) WithGroup(name string) slog.Handler {
	return &syncHandler{
		handler: h.handler.WithGroup(name),
		done:    h.done,
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not complete within timeout")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("executes handler and closes done", func(t *testing.T) {
		ctx := context.Background()
		executed := false

		done := async.Dispatch(ctx, "test", func(ctx context.Context) error {
			executed = true
			return nil
		})

		waitDone(t, done)
		gt.True(t, executed)
	})

	t.Run("handles errors without crashing", func(t *testing.T) {
		logBuf := &safeBuffer{}
		handler := newSyncHandler(logBuf)
		ctx := ctxlog.With(context.Background(), slog.New(handler))

		done := async.Dispatch(ctx, "notify", func(ctx context.Context) error {
			return errors.New("test error")
		})

		waitDone(t, done)
		select {
		case <-handler.done:
		case <-time.After(1 * time.Second):
			t.Fatal("log was not written within timeout")
		}

		logOutput := logBuf.String()
		gt.True(t, strings.Contains(logOutput, "error in async handler"))
		gt.True(t, strings.Contains(logOutput, "task=notify"))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		done := async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
			panic("test panic")
		})

		waitDone(t, done)
	})

	t.Run("recovers from panic with stack trace", func(t *testing.T) {
		logBuf := &safeBuffer{}
		handler := newSyncHandler(logBuf)
		ctx := ctxlog.With(context.Background(), slog.New(handler))

		done := async.Dispatch(ctx, "test", func(ctx context.Context) error {
			panic("test panic with stack")
		})

		waitDone(t, done)
		select {
		case <-handler.done:
		case <-time.After(1 * time.Second):
			t.Fatal("log was not written within timeout")
		}

		logOutput := logBuf.String()
		gt.True(t, strings.Contains(logOutput, "panic in async handler"))
		gt.True(t, strings.Contains(logOutput, "test panic with stack"))
		gt.True(t, strings.Contains(logOutput, "goroutine"))
		gt.True(t, strings.Contains(logOutput, "dispatch_test.go"))
	})

	t.Run("preserves context values", func(t *testing.T) {
		ctx := ctxlog.With(context.Background(), slog.Default())

		done := async.Dispatch(ctx, "test", func(newCtx context.Context) error {
			gt.NotNil(t, ctxlog.From(newCtx))
			return nil
		})

		waitDone(t, done)
	})

	t.Run("creates new background context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		done := async.Dispatch(ctx, "test", func(newCtx context.Context) error {
			cancel()

			select {
			case <-newCtx.Done():
				t.Error("new context was cancelled")
			default:
			}
			return nil
		})

		waitDone(t, done)
	})
}
