// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"reflect"
	"testing"

	"github.com/jllopis/autoagents/pkg/errors"
)

func TestParsePlan(t *testing.T) {
	steps, err := ParsePlan("## Revised Execution Plan\n1. Step one\n2. Step two\n##")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"Step one", "Step two"}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("expected %v, got %v", want, steps)
	}
}

func TestParsePlanKeepsFirstLineOnly(t *testing.T) {
	text := "intro\n## Revised Execution Plan\n" +
		"1. Research the market\n   using the search tool\n" +
		"2. Write the report\n" +
		"10. Review\n" +
		"## Anything UNCLEAR\nnothing"
	steps, err := ParsePlan(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"Research the market", "Write the report", "Review"}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("expected %v, got %v", want, steps)
	}
}

func TestParsePlanViolations(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing heading", "## Execution Plan\n1. a\n##"},
		{"unterminated section", "## Revised Execution Plan\n1. a\n"},
		{"no numbered steps", "## Revised Execution Plan\nnothing here\n##"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, errors.CodeProtocolViolation) {
				t.Fatalf("expected protocol violation, got %v", err)
			}
		})
	}
}

func TestParseRoleSpecs(t *testing.T) {
	text := "## Selected Roles List:\n```\n" +
		`{"name": "Researcher", "descriptions": "Finds facts", "prompt": "You research.", "tools": ["SearchAndSummarize"], "steps": ["search", "summarize"]}` + "\n" +
		`{"name": "Writer", "descriptions": "Writes prose", "prompt": "You write.", "tools": [], "steps": ["draft"]}` +
		"\n```\n"

	specs, err := ParseRoleSpecs(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []RoleSpec{
		{Name: "Researcher", Descriptions: "Finds facts", Prompt: "You research.", Tools: []string{"SearchAndSummarize"}, Steps: []string{"search", "summarize"}},
		{Name: "Writer", Descriptions: "Writes prose", Prompt: "You write.", Tools: []string{}, Steps: []string{"draft"}},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Fatalf("expected %#v, got %#v", want, specs)
	}
}

func TestParseRoleSpecsJSONLike(t *testing.T) {
	text := "{'name': 'Analyst', 'descriptions': 'd', 'prompt': 'p', 'tools': ['calc'], 'steps': ['one']}\n{}"
	specs, err := ParseRoleSpecs(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "Analyst" || specs[0].Tools[0] != "calc" {
		t.Fatalf("unexpected specs %#v", specs)
	}
}

func TestParseRoleSpecsViolations(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no objects", "nothing to see"},
		{"malformed", `{"name": "x", "tools": [}`},
		{"missing name", `{"descriptions": "d"}`},
		{"only empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRoleSpecs(tt.text); !errors.HasCode(err, errors.CodeProtocolViolation) {
				t.Fatalf("expected protocol violation, got %v", err)
			}
		})
	}
}

func TestParseFileBlock(t *testing.T) {
	block, err := ParseFileBlock("Here is the file:\n```python\nprint('hi')\n```\nDone.")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if block.Lang != "python" {
		t.Errorf("expected python, got %q", block.Lang)
	}
	if block.Body != "\nprint('hi')\n" {
		t.Errorf("unexpected body %q", block.Body)
	}

	if _, err := ParseFileBlock("no fence at all"); !errors.HasCode(err, errors.CodeProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
	if _, err := ParseFileBlock("```go\nunterminated"); err == nil {
		t.Fatal("expected error for unterminated fence")
	}
}

func TestParseDispatch(t *testing.T) {
	d, err := ParseDispatch("## NextRole\nWriter\n## Instruction\nDraft the intro.\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.Role != "Writer" || d.Instruction != "Draft the intro." || d.Finished {
		t.Fatalf("unexpected dispatch %#v", d)
	}

	done, err := ParseDispatch("## Status\nFINISHED")
	if err != nil || !done.Finished {
		t.Fatalf("expected finished dispatch, got %#v, %v", done, err)
	}

	if _, err := ParseDispatch("## Instruction\nno role"); err == nil {
		t.Fatal("expected violation without NextRole")
	}
}

func TestSections(t *testing.T) {
	s := Sections("preamble\n## A\nalpha\n## B:\nbeta\nmore\n")
	if s["A"] != "alpha" {
		t.Errorf("unexpected A %q", s["A"])
	}
	if s["B"] != "beta\nmore" {
		t.Errorf("unexpected B %q", s["B"])
	}
}
