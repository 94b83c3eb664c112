// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package cost accounts for completion spend against an invested budget.
package cost

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

var thousand = decimal.NewFromInt(1000)

// Pricing is the USD price per 1k tokens.
type Pricing struct {
	PromptPer1K     decimal.Decimal
	CompletionPer1K decimal.Decimal
}

// Cost returns the price of usage under p.
func (p Pricing) Cost(u llm.Usage) decimal.Decimal {
	prompt := decimal.NewFromInt(int64(u.PromptTokens)).Mul(p.PromptPer1K)
	completion := decimal.NewFromInt(int64(u.CompletionTokens)).Mul(p.CompletionPer1K)
	return prompt.Add(completion).Div(thousand)
}

// Summary is a point-in-time view of the spend.
type Summary struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	Total            decimal.Decimal
	Budget           decimal.Decimal
}

// Remaining returns the unspent budget, or zero when no budget is set.
func (s Summary) Remaining() decimal.Decimal {
	if s.Budget.IsZero() {
		return decimal.Zero
	}
	return s.Budget.Sub(s.Total)
}

// Tracker accumulates spend and enforces a budget ceiling. It is constructed
// explicitly and handed to every completer that should be accounted, so
// several independent runs can coexist in one process.
type Tracker struct {
	mu       sync.Mutex
	defaults Pricing
	models   map[string]Pricing
	budget   decimal.Decimal
	total    decimal.Decimal
	prompt   int
	complete int
	calls    int
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithModelPricing overrides pricing for a single model.
func WithModelPricing(model string, p Pricing) Option {
	return func(t *Tracker) { t.models[model] = p }
}

// WithBudget sets the initial budget ceiling.
func WithBudget(b decimal.Decimal) Option {
	return func(t *Tracker) { t.budget = b }
}

// WithMetrics records token counters on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// NewTracker creates a tracker charging defaults for models without an
// explicit price.
func NewTracker(defaults Pricing, opts ...Option) *Tracker {
	t := &Tracker{
		defaults: defaults,
		models:   make(map[string]Pricing),
		logger:   telemetry.Logger("cost"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetBudget replaces the budget ceiling. A zero budget disables enforcement.
func (t *Tracker) SetBudget(b decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budget = b
}

// Allow reports BUDGET_EXCEEDED once spend has reached the budget.
func (t *Tracker) Allow() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.budget.IsPositive() && t.total.GreaterThanOrEqual(t.budget) {
		return errors.New(errors.CodeBudgetExceeded, "invested budget exhausted", nil).
			WithContext("budget", t.budget.StringFixed(4)).
			WithContext("total", t.total.StringFixed(4))
	}
	return nil
}

// Record charges usage for model.
func (t *Tracker) Record(model string, u llm.Usage) {
	t.mu.Lock()
	p, ok := t.models[model]
	if !ok {
		p = t.defaults
	}
	c := p.Cost(u)
	t.total = t.total.Add(c)
	t.prompt += u.PromptTokens
	t.complete += u.CompletionTokens
	t.calls++
	total, budget := t.total, t.budget
	t.mu.Unlock()

	t.metrics.RecordTokens(context.Background(), model, u.PromptTokens, u.CompletionTokens)
	t.logger.Debug("cost.record",
		slog.String("model", model),
		slog.String("call_cost", c.StringFixed(4)),
		slog.String("total_cost", total.StringFixed(4)),
		slog.String("budget", budget.StringFixed(4)),
	)
}

// Summary returns the current spend.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Calls:            t.calls,
		PromptTokens:     t.prompt,
		CompletionTokens: t.complete,
		Total:            t.total,
		Budget:           t.budget,
	}
}
