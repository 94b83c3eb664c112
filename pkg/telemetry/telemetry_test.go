// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
)

func TestInitStdoutExportsRunSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitWithConfig("test-service", "v0.0.1", Config{Writer: &buf})
	if err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "environment.round")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !strings.Contains(buf.String(), "environment.round") {
		t.Errorf("expected span in stdout export, got %s", buf.String())
	}
}

func TestInitWithConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"otlp without endpoint", Config{Exporter: "otlp"}},
		{"unknown exporter", Config{Exporter: "zipkin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitWithConfig("svc", "v0", tt.cfg)
			if !errors.HasCode(err, errors.CodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestInitNone(t *testing.T) {
	shutdown, err := InitWithConfig("svc", "v0", Config{Exporter: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestConfigureSlog(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("environment.publish", slog.String("role", "Manager"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"role":"Manager"`) {
		t.Errorf("expected json attribute, got %s", out)
	}
}

func TestConfigureSlogAddsRunContext(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	ctx := core.WithRound(core.WithTaskID(context.Background(), "task-1"), 2)
	logger.InfoContext(ctx, "scheduler.round.start")
	logger.InfoContext(context.Background(), "outside")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"autoagents.task.id":"task-1"`) || !strings.Contains(lines[0], `"autoagents.round.index":2`) {
		t.Errorf("expected run context on record, got %s", lines[0])
	}
	if strings.Contains(lines[1], "autoagents.task.id") {
		t.Errorf("unexpected run context outside a run: %s", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
