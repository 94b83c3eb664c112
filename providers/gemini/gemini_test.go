// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package gemini

import (
	"testing"

	"github.com/jllopis/autoagents/pkg/llm"
	"google.golang.org/genai"
)

func TestWithModel(t *testing.T) {
	p := newProvider(nil, WithModel("gemini-1.5-pro"), WithModel(""))
	if p.model != "gemini-1.5-pro" {
		t.Errorf("expected model gemini-1.5-pro, got %s", p.model)
	}
	if newProvider(nil).model != DefaultModel {
		t.Errorf("expected default model %s", DefaultModel)
	}
}

func TestConvertMessages(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are helpful"},
		{Role: llm.RoleSystem, Content: "Answer in sections"},
		{Role: llm.RoleUser, Content: "Hello"},
		{Role: llm.RoleAssistant, Content: "Hi there"},
	}

	contents, systemInstruction := convertMessages(messages)

	if systemInstruction != "You are helpful\n\nAnswer in sections" {
		t.Errorf("unexpected system instruction %q", systemInstruction)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("unexpected roles %s, %s", contents[0].Role, contents[1].Role)
	}
	if contents[1].Parts[0].Text != "Hi there" {
		t.Errorf("unexpected text %q", contents[1].Parts[0].Text)
	}
}

func TestConvertResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "## Plan\n"}, {Text: "1. Coder"}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 4,
			TotalTokenCount:      16,
		},
	}
	got := convertResponse(resp)
	if got.Content != "## Plan\n1. Coder" {
		t.Errorf("unexpected content %q", got.Content)
	}
	if got.Usage.TotalTokens != 16 || got.Usage.PromptTokens != 12 || got.Usage.CompletionTokens != 4 {
		t.Errorf("unexpected usage %+v", got.Usage)
	}
	if empty := convertResponse(nil); empty.Content != "" {
		t.Errorf("expected empty response, got %+v", empty)
	}
}
