// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package cost

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
)

func price(prompt, completion string) Pricing {
	return Pricing{
		PromptPer1K:     decimal.RequireFromString(prompt),
		CompletionPer1K: decimal.RequireFromString(completion),
	}
}

func TestPricingCost(t *testing.T) {
	tests := []struct {
		name  string
		p     Pricing
		usage llm.Usage
		want  string
	}{
		{"zero usage", price("0.03", "0.06"), llm.Usage{}, "0"},
		{"prompt only", price("0.03", "0.06"), llm.Usage{PromptTokens: 1000}, "0.03"},
		{"mixed", price("0.03", "0.06"), llm.Usage{PromptTokens: 500, CompletionTokens: 250}, "0.03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Cost(tt.usage)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTrackerRecord(t *testing.T) {
	tr := NewTracker(price("0.01", "0.02"), WithModelPricing("big", price("1", "1")))

	tr.Record("small", llm.Usage{PromptTokens: 1000, CompletionTokens: 1000})
	tr.Record("big", llm.Usage{PromptTokens: 1000})

	s := tr.Summary()
	if s.Calls != 2 || s.PromptTokens != 2000 || s.CompletionTokens != 1000 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !s.Total.Equal(decimal.RequireFromString("1.03")) {
		t.Errorf("expected total 1.03, got %s", s.Total)
	}
}

func TestTrackerBudget(t *testing.T) {
	tr := NewTracker(price("1", "1"))
	if err := tr.Allow(); err != nil {
		t.Fatalf("zero budget should not enforce: %v", err)
	}

	tr.SetBudget(decimal.NewFromInt(2))
	tr.Record("m", llm.Usage{PromptTokens: 1000})
	if err := tr.Allow(); err != nil {
		t.Fatalf("under budget: %v", err)
	}
	if !tr.Summary().Remaining().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1 remaining, got %s", tr.Summary().Remaining())
	}

	tr.Record("m", llm.Usage{CompletionTokens: 1000})
	err := tr.Allow()
	if !errors.HasCode(err, errors.CodeBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
}

func TestTrackerDrivesCompleter(t *testing.T) {
	tr := NewTracker(price("1", "1"), WithBudget(decimal.RequireFromString("0.01")))
	c := llm.NewCompleter(&llm.MockProvider{Response: "ok"}, llm.WithUsageRecorder(tr))

	// MockProvider reports 20 tokens: 0.02 > 0.01 budget after one call.
	if _, err := c.Complete(t.Context(), []llm.Message{llm.User("hi")}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := c.Complete(t.Context(), []llm.Message{llm.User("hi")}); !errors.HasCode(err, errors.CodeBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
}
