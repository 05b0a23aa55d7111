package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/folio/internal/pkg/stacktrace"
)

// dispatch runs handler with panic recovery and applies auto-ack.
func dispatch(ctx context.Context, kind string, handler Handler, msg Message, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error { return handler(ctx, msg) })

	if r, ok := msg.(interface{ responded() bool }); ok && r.responded() {
		return herr
	}
	if !autoAck {
		return herr
	}

	if herr != nil {
		if err := msg.Nack(ctx); err != nil {
			slog.WarnContext(ctx, "failed to nack message", "kind", kind, "topic", msg.Topic(), "error", err)
		}
		return herr
	}

	return msg.Ack(ctx)
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
