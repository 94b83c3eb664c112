// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/llm"
)

const mockRoster = "## Selected Roles List\n" +
	"```json\n" +
	`{"name": "Game Developer", "descriptions": "Implements the program in a single Go file", "prompt": "You write small, complete Go programs.", "tools": [], "steps": ["read the instruction", "write the code", "return it as a file"]}` + "\n" +
	`{"name": "Code Reviewer", "descriptions": "Reviews the program and fixes defects", "prompt": "You review Go code and return the corrected file.", "tools": [], "steps": ["read the code", "fix defects", "return the corrected file"]}` + "\n" +
	"```\n" +
	"## Execution Plan\n" +
	"1. Game Developer: write the program as main.go\n" +
	"2. Code Reviewer: review main.go and return the corrected file\n" +
	"## End\n"

const mockPlan = "## Revised Execution Plan\n" +
	"1. Game Developer: write the program as main.go\n" +
	"2. Code Reviewer: review main.go and return the corrected file\n" +
	"## End\n"

const mockDeliverable = "## Filename\n" +
	"main.go\n" +
	"## Code\n" +
	"```go\n" +
	"package main\n\n" +
	"import \"fmt\"\n\n" +
	"func main() {\n\tfmt.Println(\"hello from the team\")\n}\n" +
	"```\n"

const mockFinished = "## Status\nFINISHED\n"

// MockRules answers every built-in prompt with a canned two-role project so a
// full run completes offline.
func MockRules() []llm.MatchRule {
	return []llm.MatchRule{
		{Marker: action.MarkerCreateRoles, Response: mockRoster},
		{Marker: action.MarkerCheckRoles, Response: mockRoster},
		{Marker: action.MarkerCheckPlans, Response: mockPlan},
		{Marker: action.MarkerCustom, Response: mockDeliverable},
		{Marker: action.MarkerDispatch, Response: mockFinished},
	}
}

// NewMockProvider returns a provider serving MockRules.
func NewMockProvider() *llm.MatchMockProvider {
	return &llm.MatchMockProvider{Rules: MockRules(), Fallback: mockFinished}
}
