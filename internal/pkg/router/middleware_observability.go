package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/folio/internal/pkg/config"
	"github.com/shandysiswandi/folio/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if remaining := maxLoggedBodyBytes - w.body.Len(); remaining > 0 {
		w.body.Write(p[:min(len(p), remaining)])
		w.capped = w.capped || len(p) > remaining
	} else if len(p) > 0 {
		w.capped = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) SetError(err error) { w.err = err }

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func maskHeaders(h http.Header, keys map[string]struct{}) http.Header {
	out := h.Clone()
	for k := range out {
		if _, found := keys[strings.ToLower(k)]; found {
			out.Set(k, instrument.Masked)
		}
	}
	return out
}

func loggableBody(body []byte, keys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return instrument.Mask(decoded, keys)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}

	return string(body)
}

// peekBody reads up to maxLoggedBodyBytes of the request body and restores it.
func peekBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return head
}

// alwaysMasked covers credentials that reach logs whatever the configuration.
var alwaysMasked = []string{"authorization", "cookie", "set-cookie", "access_token", "refresh_token"}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	var maskFields []string
	if cfg != nil {
		maskFields = cfg.GetArray("telemetry.log_mask_fields")
	}
	keys := instrument.MaskKeys(append(maskFields, alwaysMasked...))

	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			))
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"headers", maskHeaders(r.Header, keys),
				"body", loggableBody(peekBody(r), keys),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.Status()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.SetAttributes(append(attrs,
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)...)

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"truncated", rec.capped,
				"body", loggableBody(rec.body.Bytes(), keys),
			)
		})
	}
}
