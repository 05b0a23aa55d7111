package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})

	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &maskHandler{Handler: handler, keys: MaskKeys(maskFields)},
		serviceName: serviceName,
	}))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
	}

	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cid := GetCorrelationID(ctx); cid != "" {
		r.AddAttrs(slog.String("_cID", cid))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

// fanout writes every record to all handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type maskHandler struct {
	slog.Handler
	keys map[string]struct{}
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.Handler.Handle(ctx, r)
	}

	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a, h.keys))
		return true
	})

	return h.Handler.Handle(ctx, masked)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a, h.keys)
	}
	return &maskHandler{Handler: h.Handler.WithAttrs(masked), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{Handler: h.Handler.WithGroup(name), keys: h.keys}
}

func maskAttr(a slog.Attr, keys map[string]struct{}) slog.Attr {
	if _, found := keys[strings.ToLower(a.Key)]; found {
		return slog.String(a.Key, Masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = maskAttr(ga, keys)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(Mask(v, keys))
		case map[string]string:
			converted := make(map[string]any, len(v))
			for k, s := range v {
				converted[k] = s
			}
			a.Value = slog.AnyValue(Mask(converted, keys))
		}
	}

	return a
}
