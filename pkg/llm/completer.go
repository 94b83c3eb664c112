// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/resilience"
	"github.com/jllopis/autoagents/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// UsageRecorder accounts for completion usage. Allow is consulted before
// every call so a spent budget stops further completions.
type UsageRecorder interface {
	Allow() error
	Record(model string, usage Usage)
}

// Completer narrows a Provider to text completion with retries and usage
// accounting. It is safe for concurrent use.
type Completer struct {
	provider    Provider
	model       string
	temperature float64
	retry       resilience.RetryConfig
	usage       UsageRecorder
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

// WithModel sets the model sent on every request.
func WithModel(model string) CompleterOption {
	return func(c *Completer) { c.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CompleterOption {
	return func(c *Completer) { c.temperature = t }
}

// WithRetry replaces the retry policy.
func WithRetry(rc resilience.RetryConfig) CompleterOption {
	return func(c *Completer) { c.retry = rc }
}

// WithUsageRecorder attaches cost accounting.
func WithUsageRecorder(r UsageRecorder) CompleterOption {
	return func(c *Completer) { c.usage = r }
}

// NewCompleter wraps provider. The default retry policy makes six attempts
// with exponential backoff starting at one second.
func NewCompleter(provider Provider, opts ...CompleterOption) *Completer {
	c := &Completer{
		provider: provider,
		retry: resilience.DefaultRetryConfig().
			WithMaxAttempts(6).
			WithInitialDelay(time.Second).
			WithMaxDelay(32 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Completer) Model() string { return c.model }

// Complete sends msgs and returns the assistant text.
func (c *Completer) Complete(ctx context.Context, msgs []Message) (string, error) {
	if c.usage != nil {
		if err := c.usage.Allow(); err != nil {
			return "", err
		}
	}

	ctx, span := telemetry.Tracer().Start(ctx, "llm.complete")
	defer span.End()

	req := ChatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	}
	attempts := 1
	rc := c.retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
		attempts = attempt + 1
		slog.Default().WarnContext(ctx, "llm.complete.retry",
			slog.String("model", c.model),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	})
	resp, err := resilience.Value(ctx, rc, func() (*ChatResponse, error) {
		return c.provider.Chat(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		if errors.HasCode(err, errors.CodeContextLost) {
			return "", err
		}
		return "", errors.New(errors.CodeLLMError, "completion failed", err).
			WithContext("model", c.model).
			WithContext("attempts", attempts)
	}
	span.SetAttributes(telemetry.LLMAttributes(c.model, len(msgs), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)...)
	if c.usage != nil {
		c.usage.Record(c.model, resp.Usage)
	}
	return strings.TrimSpace(resp.Content), nil
}
