// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
)

// ToolCaller executes a named MCP tool. *Client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// ToolAdapter exposes one MCP tool to spawned roles as a core.Tool. Roles
// hand it the step instruction as a string and get prompt-ready text back.
type ToolAdapter struct {
	tool   mcp.Tool
	caller ToolCaller
}

// NewToolAdapter wraps tool. Both a tool name and a caller are required.
func NewToolAdapter(tool mcp.Tool, caller ToolCaller) (*ToolAdapter, error) {
	if tool.Name == "" {
		return nil, errors.New(errors.CodeInvalidInput, "mcp tool name is required", nil)
	}
	if caller == nil {
		return nil, errors.New(errors.CodeInvalidInput, "tool caller is required", nil).WithContext("tool", tool.Name)
	}
	return &ToolAdapter{tool: tool, caller: caller}, nil
}

// Name returns the MCP tool name, which is also its registry key.
func (t *ToolAdapter) Name() string { return t.tool.Name }

// Description returns the server supplied tool description.
func (t *ToolAdapter) Description() string { return t.tool.Description }

// Call runs the tool and renders its result as text. Structured results are
// rendered as indented JSON.
func (t *ToolAdapter) Call(ctx context.Context, input any) (any, error) {
	args, err := t.arguments(input)
	if err != nil {
		return nil, err
	}
	for _, key := range t.required() {
		if _, ok := args[key]; !ok {
			return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("mcp tool args: missing required field %q", key), nil).
				WithContext("tool", t.tool.Name)
		}
	}

	result, err := t.caller.CallTool(ctx, t.tool.Name, args)
	if err != nil {
		return nil, err
	}
	return render(t.tool.Name, result)
}

// arguments turns a role's input into call arguments. A JSON object string
// is decoded; any other string is bound to the schema's only required field,
// or to "input" when there is not exactly one.
func (t *ToolAdapter) arguments(input any) (map[string]interface{}, error) {
	switch v := input.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return map[string]interface{}{}, nil
		}
		if strings.HasPrefix(text, "{") {
			var obj map[string]interface{}
			if json.Unmarshal([]byte(text), &obj) == nil {
				return obj, nil
			}
		}
		field := "input"
		if req := t.required(); len(req) == 1 {
			field = req[0]
		}
		return map[string]interface{}{field: text}, nil
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("mcp tool args: unsupported type %T", input), err)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "mcp tool args: not an object", err).WithContext("tool", t.tool.Name)
	}
	return obj, nil
}

func (t *ToolAdapter) required() []string {
	schema := t.tool.InputSchema
	if schema.Type != "" && schema.Type != "object" {
		return nil
	}
	return schema.Required
}

func render(name string, result *mcp.CallToolResult) (string, error) {
	if result == nil {
		return "", errors.New(errors.CodeToolFailure, "mcp tool returned no result", nil).WithContext("tool", name)
	}
	text := contentText(result.Content)
	if result.IsError {
		return "", errors.New(errors.CodeToolFailure, "mcp tool returned error: "+text, nil).WithContext("tool", name)
	}
	if text != "" {
		return text, nil
	}
	if result.StructuredContent != nil {
		raw, err := json.MarshalIndent(result.StructuredContent, "", "  ")
		if err != nil {
			return "", errors.New(errors.CodeToolFailure, "render structured tool result", err).WithContext("tool", name)
		}
		return string(raw), nil
	}
	return "", nil
}

// contentText joins text parts and notes the others by kind.
func contentText(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch c := item.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case mcp.ImageContent:
			parts = append(parts, "[image "+c.MIMEType+"]")
		case mcp.EmbeddedResource:
			parts = append(parts, "[resource]")
		}
	}
	return strings.Join(parts, "\n")
}

// Adapters lists the tools on client and wraps each as a core.Tool.
func Adapters(ctx context.Context, client *Client) ([]core.Tool, error) {
	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Tool, 0, len(tools))
	for _, tool := range tools {
		adapter, err := NewToolAdapter(tool, client)
		if err != nil {
			return nil, err
		}
		out = append(out, adapter)
	}
	return out, nil
}

var _ core.Tool = (*ToolAdapter)(nil)
