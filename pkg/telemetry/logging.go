// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/autoagents/pkg/core"
)

// TracerName is the instrumentation scope used by orchestration spans.
const TracerName = "autoagents"

// Tracer returns the orchestration tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Logger returns the default logger scoped to component.
func Logger(component string) *slog.Logger {
	return slog.Default().With(slog.String(AttrComponent, component))
}

// ConfigureSlog installs a global logger whose records pick up the task id,
// scheduler round and span ids carried by the context they are logged with.
// Format is "json" or text.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var base slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base = slog.NewJSONHandler(output, opts)
	} else {
		base = slog.NewTextHandler(output, opts)
	}
	logger := slog.New(runHandler{next: base})
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config level name onto slog. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// runHandler decorates records with run context. Attributes already set on
// the record win.
type runHandler struct {
	next slog.Handler
}

func (h runHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h runHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx != nil {
		present := attrKeys(record)
		add := func(a slog.Attr) {
			if _, ok := present[a.Key]; !ok {
				record.AddAttrs(a)
			}
		}
		if id, ok := core.TaskID(ctx); ok && id != "" {
			add(slog.String(AttrTaskID, id))
		}
		if round := core.Round(ctx); round > 0 {
			add(slog.Int(AttrRound, round))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			add(slog.String("trace_id", sc.TraceID().String()))
			add(slog.String("span_id", sc.SpanID().String()))
		}
	}
	return h.next.Handle(ctx, record)
}

func (h runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return runHandler{next: h.next.WithAttrs(attrs)}
}

func (h runHandler) WithGroup(name string) slog.Handler {
	return runHandler{next: h.next.WithGroup(name)}
}

func attrKeys(record slog.Record) map[string]struct{} {
	keys := make(map[string]struct{}, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		keys[a.Key] = struct{}{}
		return true
	})
	return keys
}
