// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/cost"
	"github.com/jllopis/autoagents/pkg/environment"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/pkg/role"
)

func newMockExplorer(t *testing.T, pricing cost.Pricing) *Explorer {
	t.Helper()
	tracker := cost.NewTracker(pricing)
	completer := llm.NewCompleter(NewMockProvider(), llm.WithModel("mock"), llm.WithUsageRecorder(tracker))
	f := role.Factory{Completer: completer}
	x := New(environment.New(environment.WithFactory(f), environment.WithTaskID("t-1")), tracker)
	if err := x.Hire(f.Builtins()...); err != nil {
		t.Fatalf("hire failed: %v", err)
	}
	return x
}

func TestMockProjectCompletes(t *testing.T) {
	x := newMockExplorer(t, cost.Pricing{})
	ctx := context.Background()

	if err := x.Invest(decimal.NewFromInt(10)); err != nil {
		t.Fatalf("invest failed: %v", err)
	}
	if err := x.StartProject(ctx, "  write a hello world program "); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if x.Idea() != "write a hello world program" {
		t.Fatalf("idea not trimmed: %q", x.Idea())
	}
	if err := x.Run(ctx, 3); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	mem := x.Environment().Memory()
	for _, tag := range []string{
		action.RequirementTag,
		action.CreateRolesTag,
		action.CheckRolesTag,
		action.CheckPlansTag,
		action.CustomTagFor("Game Developer"),
		action.CustomTagFor("Code Reviewer"),
	} {
		if len(mem.ByCause(tag)) != 1 {
			t.Errorf("expected one %s message, got %d", tag, len(mem.ByCause(tag)))
		}
	}
	seed := mem.ByCause(action.RequirementTag)[0]
	if seed.Role != role.HumanProfile {
		t.Fatalf("seed must come from the human, got %q", seed.Role)
	}

	if got := x.CostSummary().Calls; got != 5 {
		t.Fatalf("expected 5 completions, got %d", got)
	}
}

func TestBudgetExhaustionAbortsRun(t *testing.T) {
	x := newMockExplorer(t, cost.Pricing{
		PromptPer1K:     decimal.NewFromInt(1),
		CompletionPer1K: decimal.NewFromInt(1),
	})
	ctx := context.Background()
	if err := x.Invest(decimal.RequireFromString("0.000001")); err != nil {
		t.Fatalf("invest failed: %v", err)
	}
	if err := x.StartProject(ctx, "idea"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	err := x.Run(ctx, 3)
	if !errors.HasCode(err, errors.CodeBudgetExceeded) {
		t.Fatalf("expected BUDGET_EXCEEDED, got %v", err)
	}
	if got := x.CostSummary().Calls; got != 1 {
		t.Fatalf("only the first completion fits the budget, got %d", got)
	}
}

func TestExplorerValidation(t *testing.T) {
	x := New(environment.New(), nil)
	ctx := context.Background()

	if err := x.Invest(decimal.NewFromInt(1)); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("invest without tracker: %v", err)
	}
	x = New(environment.New(), cost.NewTracker(cost.Pricing{}))
	if err := x.Invest(decimal.NewFromInt(-1)); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("negative investment: %v", err)
	}
	if err := x.Invest(decimal.Zero); err != nil {
		t.Fatalf("zero investment disables the budget: %v", err)
	}
	if err := x.StartProject(ctx, "   "); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("empty idea: %v", err)
	}
	if err := x.Run(ctx, 1); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("run before start: %v", err)
	}
	if x.CostSummary().Calls != 0 {
		t.Fatalf("expected no calls")
	}
}
