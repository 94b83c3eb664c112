// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/autoagents/pkg/errors"
)

type stubCaller struct {
	lastName string
	lastArgs map[string]interface{}
	result   *mcp.CallToolResult
	err      error
}

func (s *stubCaller) CallTool(_ context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	s.lastName = name
	s.lastArgs = args
	return s.result, s.err
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func TestToolAdapter_Call_BindsStringToRequiredField(t *testing.T) {
	tool := mcp.Tool{
		Name: "search",
		InputSchema: mcp.ToolInputSchema{
			Type:     "object",
			Required: []string{"query"},
		},
	}
	caller := &stubCaller{result: textResult("ok")}

	adapter, err := NewToolAdapter(tool, caller)
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}

	output, err := adapter.Call(context.Background(), "  golang generics ")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if output != "ok" {
		t.Fatalf("Expected output 'ok', got %v", output)
	}
	if caller.lastName != "search" {
		t.Fatalf("Expected tool name 'search', got %q", caller.lastName)
	}
	if caller.lastArgs["query"] != "golang generics" {
		t.Fatalf("Expected query arg, got %v", caller.lastArgs)
	}
}

func TestToolAdapter_Call_ParsesJSONInput(t *testing.T) {
	tool := mcp.Tool{
		Name: "sum",
		InputSchema: mcp.ToolInputSchema{
			Type:     "object",
			Required: []string{"a", "b"},
		},
	}
	caller := &stubCaller{result: textResult("3")}

	adapter, err := NewToolAdapter(tool, caller)
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}

	output, err := adapter.Call(context.Background(), `{"a":1,"b":2}`)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if output != "3" {
		t.Fatalf("Expected output '3', got %v", output)
	}
	if caller.lastArgs["a"] != float64(1) || caller.lastArgs["b"] != float64(2) {
		t.Fatalf("Expected args a=1 b=2, got %v", caller.lastArgs)
	}
}

func TestToolAdapter_Call_ValidatesRequiredArgs(t *testing.T) {
	tool := mcp.Tool{
		Name: "needs-foo",
		InputSchema: mcp.ToolInputSchema{
			Type:     "object",
			Required: []string{"foo"},
		},
	}

	adapter, err := NewToolAdapter(tool, &stubCaller{result: textResult("ok")})
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}

	_, err = adapter.Call(context.Background(), map[string]interface{}{"bar": "baz"})
	if err == nil || !strings.Contains(err.Error(), "missing required field") {
		t.Fatalf("Expected missing required field error, got %v", err)
	}
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("Expected invalid input code, got %v", err)
	}
}

func TestToolAdapter_Call_ToolErrorIsTyped(t *testing.T) {
	caller := &stubCaller{result: &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "rate limited"}},
	}}
	adapter, _ := NewToolAdapter(mcp.Tool{Name: "flaky"}, caller)

	_, err := adapter.Call(context.Background(), nil)
	if !errors.HasCode(err, errors.CodeToolFailure) {
		t.Fatalf("Expected tool failure, got %v", err)
	}
}

func TestToolAdapter_Call_ReturnsStructuredContent(t *testing.T) {
	tool := mcp.Tool{Name: "structured"}
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			StructuredContent: map[string]interface{}{"ok": true},
		},
	}

	adapter, err := NewToolAdapter(tool, caller)
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}

	output, err := adapter.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}

	if output != "{\n  \"ok\": true\n}" {
		t.Fatalf("Expected rendered JSON payload, got %q", output)
	}
}

func TestToolAdapter_Call_UnboundStringUsesInputField(t *testing.T) {
	caller := &stubCaller{result: &mcp.CallToolResult{Content: []mcp.Content{
		mcp.TextContent{Type: "text", Text: "chart"},
		mcp.ImageContent{Type: "image", MIMEType: "image/png"},
	}}}
	adapter, _ := NewToolAdapter(mcp.Tool{Name: "plot"}, caller)

	output, err := adapter.Call(context.Background(), "draw sales")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if caller.lastArgs["input"] != "draw sales" {
		t.Fatalf("Expected input arg, got %v", caller.lastArgs)
	}
	if output != "chart\n[image image/png]" {
		t.Fatalf("Unexpected output %q", output)
	}
}

func TestNewToolAdapterRequiresName(t *testing.T) {
	if _, err := NewToolAdapter(mcp.Tool{}, &stubCaller{}); err == nil {
		t.Fatal("expected error for unnamed tool")
	}
	if _, err := NewToolAdapter(mcp.Tool{Name: "x"}, nil); err == nil {
		t.Fatal("expected error for nil caller")
	}
}
