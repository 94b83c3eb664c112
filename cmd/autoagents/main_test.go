// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jllopis/autoagents/pkg/config"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/providers/anthropic"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunMockProject(t *testing.T) {
	db := filepath.Join(t.TempDir(), "transcript.db")
	out, err := execute(t,
		"run",
		"--idea", "write a hello world program",
		"--mock",
		"--task-id", "t-1",
		"--set", "sink.sqlite_path="+db,
		"--set", "log.level=error",
	)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Task t-1 done",
		"roles:    6",
		"steps:    2",
		"messages: 8",
		"completions: 5",
		"transcript: 7 records",
		"main.go",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunRequiresIdea(t *testing.T) {
	if _, err := execute(t, "run", "--mock"); err == nil {
		t.Fatal("expected error without --idea")
	}
}

func TestRunRejectsUnknownProvider(t *testing.T) {
	_, err := execute(t, "run", "--idea", "x", "--set", "llm.provider=nope", "--set", "log.level=error")
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRunRejectsInvalidProxy(t *testing.T) {
	_, err := execute(t, "run", "--idea", "x", "--proxy", "127.0.0.1", "--set", "log.level=error")
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestBuildProviderSelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = "test"
	p, err := buildProvider(context.Background(), cfg, wireOptions{})
	if err != nil {
		t.Fatalf("buildProvider: %v", err)
	}
	if _, ok := p.(*anthropic.Provider); !ok {
		t.Fatalf("expected anthropic provider, got %T", p)
	}

	p, err = buildProvider(context.Background(), cfg, wireOptions{mock: true})
	if err != nil {
		t.Fatalf("buildProvider: %v", err)
	}
	if _, ok := p.(*llm.MatchMockProvider); !ok {
		t.Fatalf("--mock must override the configured provider, got %T", p)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "autoagents ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestPrintErrorHint(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.CodeInternal, "role failed", errors.New(errors.CodeBudgetExceeded, "invested budget exhausted", nil))
	printError(&buf, err)
	if !strings.Contains(buf.String(), "Error [INTERNAL_ERROR]") || !strings.Contains(buf.String(), "--investment") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	printError(&buf, context.Canceled)
	if !strings.HasPrefix(buf.String(), "Error: context canceled") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
