package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch executes a handler function asynchronously with panic
// recovery and returns a channel that closes when the handler is done.
//
// The handler runs on a background context: cancellation of ctx does
// not reach it, but the ctxlog logger is preserved. Callers that must
// not exit before the handler finishes (a CLI sending a notification,
// for example) wait on the returned channel.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) <-chan struct{} {
	newCtx := newBackgroundContext(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"task", name,
					"recover", r,
					"stack", string(stack))
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "task", name, "error", err)
		}
	}()

	return done
}

// newBackgroundContext creates a new background context preserving the
// ctxlog logger of the original one.
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
