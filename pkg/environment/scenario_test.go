// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"context"
	"testing"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/pkg/role"
	"github.com/jllopis/autoagents/pkg/sink"
)

const roster = "## Selected Roles List\n```json\n" +
	`{"name": "Coder", "descriptions": "Writes the code", "prompt": "You write Go.", "tools": [], "steps": ["write the code"]}` + "\n" +
	`{"name": "Reviewer", "descriptions": "Reviews the code", "prompt": "You review Go.", "tools": [], "steps": ["review the code"]}` + "\n```\n"

const plan = "## Revised Execution Plan\n" +
	"1. Coder: write main.go for the game\n" +
	"2. Reviewer: review main.go\n" +
	"## End\n"

const deliverable = "## Filename\nmain.go\n## Code\n```go\npackage main\n\nfunc main() {}\n```\n"

func mockCompleter() *llm.Completer {
	return llm.NewCompleter(&llm.MatchMockProvider{
		Rules: []llm.MatchRule{
			{Marker: action.MarkerCreateRoles, Response: roster},
			{Marker: action.MarkerCheckRoles, Response: roster},
			{Marker: action.MarkerCheckPlans, Response: plan},
			{Marker: action.MarkerCustom, Response: deliverable},
		},
	})
}

func TestScenarioCatchUpRunsSpawnedRoles(t *testing.T) {
	f := role.Factory{Completer: mockCompleter()}
	ch := sink.NewChannel(64)
	env := New(WithFactory(f), WithSink(ch), WithTaskID("snake"))
	if err := env.AddRoles(f.Builtins()...); err != nil {
		t.Fatalf("AddRoles failed: %v", err)
	}
	ctx := context.Background()
	if err := env.PublishMessage(ctx, core.NewMessage(role.HumanProfile, action.RequirementTag, "write a snake game")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := env.Run(ctx, 3); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if n := len(env.Roles()); n != 6 {
		t.Fatalf("expected 6 live roles, got %d", n)
	}
	manager, _ := env.GetRole(role.ManagerProfile)
	if got := manager.RoundsRun(); got != 3+2*2 {
		t.Fatalf("expected %d rounds including catch-up, got %d", 3+2*2, got)
	}
	coder, _ := env.GetRole("Coder")
	if got := coder.RoundsRun(); got != 4 {
		t.Fatalf("spawned role should run only in catch-up rounds, got %d", got)
	}

	want := []string{
		action.RequirementTag,
		action.CreateRolesTag,
		action.CheckRolesTag,
		action.CheckPlansTag,
		"CoderRequirement",
		"CoderAction",
		"ReviewerRequirement",
		"ReviewerAction",
	}
	got := causes(env)
	if len(got) != len(want) {
		t.Fatalf("memory = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("memory[%d] = %s, want %s (memory %v)", i, got[i], want[i], got)
		}
	}

	req := env.Memory().ByCause("CoderRequirement")[0]
	if req.SendTo != "Coder" || req.Content != "Coder: write main.go for the game" {
		t.Fatalf("unexpected dispatch: %+v", req)
	}

	ch.Close()
	var records, files int
	for rec := range ch.C() {
		records++
		if rec.Data.TaskMessage.Role == role.ActionObserverProfile {
			t.Fatalf("ActionObserver record forwarded: %+v", rec)
		}
		if rec.Data.TaskMessage.File != nil {
			files++
		}
	}
	if records != 7 || files != 2 {
		t.Fatalf("expected 7 records with 2 files, got %d records and %d files", records, files)
	}
}
