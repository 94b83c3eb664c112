// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/config"
	"github.com/jllopis/autoagents/pkg/cost"
	"github.com/jllopis/autoagents/pkg/environment"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/explorer"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/pkg/mcp"
	"github.com/jllopis/autoagents/pkg/resilience"
	"github.com/jllopis/autoagents/pkg/role"
	"github.com/jllopis/autoagents/pkg/sink"
	"github.com/jllopis/autoagents/pkg/store/sqlite"
	"github.com/jllopis/autoagents/pkg/telemetry"
	"github.com/jllopis/autoagents/pkg/tools"
	"github.com/jllopis/autoagents/providers/anthropic"
	"github.com/jllopis/autoagents/providers/gemini"
	"github.com/jllopis/autoagents/providers/openai"
)

// app is a fully wired project ready to run.
type app struct {
	explorer   *explorer.Explorer
	tracker    *cost.Tracker
	transcript *sqlite.Transcript

	queue   *sink.Channel
	drained sync.WaitGroup
	closers []func() error
}

type wireOptions struct {
	taskID string
	mock   bool
	proxy  string
	out    io.Writer
}

func wireApp(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, o wireOptions) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	provider, err := buildProvider(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	a.tracker = cost.NewTracker(cost.Pricing{
		PromptPer1K:     decimal.NewFromFloat(cfg.Cost.PromptPer1K),
		CompletionPer1K: decimal.NewFromFloat(cfg.Cost.CompletionPer1K),
	}, cost.WithMetrics(metrics))

	completer := llm.NewCompleter(provider,
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithRetry(retryPolicy(cfg.LLM.MaxRetries)),
		llm.WithUsageRecorder(a.tracker),
	)

	registry, err := a.buildTools(ctx, cfg)
	if err != nil {
		return nil, err
	}

	downstream, err := a.buildSinks(ctx, cfg, o.out)
	if err != nil {
		return nil, err
	}

	termination, err := environment.ParseTermination(cfg.Run.Termination)
	if err != nil {
		return nil, err
	}

	factory := role.Factory{
		Completer:     completer,
		Tools:         registry,
		Requirements:  role.NewRequirementRegistry(),
		ActionOptions: []action.Option{action.WithContractRetries(cfg.Run.ContractRetries)},
		Metrics:       metrics,
	}

	taskID := o.taskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	envOpts := []environment.Option{
		environment.WithTaskID(taskID),
		environment.WithFactory(factory),
		environment.WithMetrics(metrics),
		environment.WithTermination(termination, cfg.Run.MaxExtraRounds),
		environment.WithFileCacheSize(cfg.Run.FileCacheSize),
	}
	if downstream != nil {
		q := sink.NewChannel(cfg.Sink.Buffer)
		a.queue = q
		a.drained.Add(1)
		go func() {
			defer a.drained.Done()
			for env := range q.C() {
				if err := downstream.Enqueue(env); err != nil {
					slog.Default().Warn("sink.write.failed", slog.String("error", err.Error()))
				}
			}
		}()
		envOpts = append(envOpts, environment.WithSink(q))
	}

	a.explorer = explorer.New(environment.New(envOpts...), a.tracker)
	if err := a.explorer.Hire(factory.Builtins()...); err != nil {
		return nil, err
	}
	ok = true
	return a, nil
}

func buildProvider(ctx context.Context, cfg *config.Config, o wireOptions) (llm.Provider, error) {
	if o.mock {
		return explorer.NewMockProvider(), nil
	}
	switch cfg.LLM.Provider {
	case "mock":
		return explorer.NewMockProvider(), nil
	case "ollama":
		return llm.NewOllama(cfg.LLM.BaseURL, cfg.LLM.Model), nil
	case "anthropic":
		return anthropic.New(
			anthropic.WithAPIKey(cfg.LLM.APIKey),
			anthropic.WithBaseURL(cfg.LLM.BaseURL),
			anthropic.WithModel(cfg.LLM.Model),
		), nil
	case "gemini":
		p, err := gemini.NewWithAPIKey(ctx, cfg.LLM.APIKey, gemini.WithModel(cfg.LLM.Model))
		if err != nil {
			return nil, errors.New(errors.CodeLLMError, "gemini client unavailable", err)
		}
		return p, nil
	case "openai", "":
		proxy := o.proxy
		if proxy == "" {
			proxy = cfg.LLM.Proxy
		}
		p, err := openai.New(
			openai.WithAPIKey(cfg.LLM.APIKey),
			openai.WithBaseURL(cfg.LLM.BaseURL),
			openai.WithModel(cfg.LLM.Model),
			openai.WithProxy(proxy),
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.New(errors.CodeInvalidInput, "unknown llm provider", nil).
			WithContext("provider", cfg.LLM.Provider)
	}
}

// retryPolicy is the completion retry: exponential backoff from one second,
// capped at 32 seconds.
func retryPolicy(attempts int) resilience.RetryConfig {
	if attempts <= 0 {
		attempts = 6
	}
	return resilience.DefaultRetryConfig().
		WithMaxAttempts(attempts).
		WithInitialDelay(time.Second).
		WithMaxDelay(32 * time.Second)
}

// buildTools registers the web search tool when a key is configured and the
// tools of every configured MCP server.
func (a *app) buildTools(ctx context.Context, cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if cfg.Tools.SerpAPIKey != "" {
		registry.Register(tools.NewSerpAPI(cfg.Tools.SerpAPIKey, tools.WithLimit(cfg.Tools.SearchLimit)), tools.SearchAliases...)
	}

	names := make([]string, 0, len(cfg.MCP.Servers))
	for name := range cfg.MCP.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		server := cfg.MCP.Servers[name]
		var opts []mcp.ClientOption
		if server.TimeoutSeconds > 0 {
			opts = append(opts, mcp.WithTimeout(time.Duration(server.TimeoutSeconds)*time.Second))
		}
		env := make([]string, 0, len(server.Env))
		for k, v := range server.Env {
			env = append(env, k+"="+v)
		}
		client, err := mcp.NewStdioClient(ctx, name, server.Command, server.Args, env, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		adapters, err := mcp.Adapters(ctx, client)
		if err != nil {
			return nil, err
		}
		for _, t := range adapters {
			registry.Register(t)
		}
		slog.Default().Info("mcp.tools.registered",
			slog.String("server", name),
			slog.Int("tools", len(adapters)),
		)
	}
	return registry, nil
}

func (a *app) buildSinks(ctx context.Context, cfg *config.Config, out io.Writer) (sink.Sink, error) {
	var sinks sink.Multi
	if cfg.Sink.Console && out != nil {
		sinks = append(sinks, sink.NewConsole(out))
	}
	if cfg.Sink.SQLitePath != "" {
		t, err := sqlite.Open(ctx, cfg.Sink.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.transcript = t
		a.closers = append(a.closers, t.Close)
		sinks = append(sinks, t)
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

// flush closes the record queue and waits for the writer to drain it.
func (a *app) flush() {
	if a.queue != nil {
		a.queue.Close()
		a.drained.Wait()
		a.queue = nil
	}
}

func (a *app) close() {
	a.flush()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Default().Warn("app.close.failed", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
