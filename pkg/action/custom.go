// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/jllopis/autoagents/pkg/contract"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

// contextWindow bounds how many history messages a spawned role reads.
const contextWindow = 20

// CustomTagFor returns the tag produced by the action of a spawned role.
func CustomTagFor(roleName string) string {
	return strings.ReplaceAll(strings.TrimSpace(roleName), " ", "_") + "Action"
}

// Custom is the action of a role spawned from a role spec. It runs the spec's
// prompt over the dispatched instruction, consulting the role's tools first.
// An answer with a "Filename" section is published as a FILE instruction.
type Custom struct {
	spec  contract.RoleSpec
	llm   Completer
	tools []core.Tool
	opts  options
}

// NewCustom creates the action for spec. tools are the resolved tools the
// spec asked for.
func NewCustom(spec contract.RoleSpec, c Completer, tools []core.Tool, opts ...Option) *Custom {
	return &Custom{spec: spec, llm: c, tools: tools, opts: buildOptions(opts)}
}

func (a *Custom) Name() string { return CustomTagFor(a.spec.Name) }

// Watches returns nil so the action fires on the owning role's requirement.
func (a *Custom) Watches() []string { return nil }

func (a *Custom) Run(ctx context.Context, in Input) (core.Message, error) {
	instruction := in.Instruction
	if instruction == "" {
		if latest, ok := in.Latest(); ok {
			instruction = latest.Content
		}
	}

	var user strings.Builder
	if ctxText := transcript(tail(in.History, contextWindow)); ctxText != "" {
		fmt.Fprintf(&user, "## Context\n%s\n\n", ctxText)
	}
	if len(a.tools) > 0 {
		results, err := a.callTools(ctx, instruction)
		if err != nil {
			return core.Message{}, err
		}
		fmt.Fprintf(&user, "## Tool Results\n%s\n\n", results)
	}
	fmt.Fprintf(&user, "## Instruction\n%s", instruction)

	system := render(customPrompt, map[string]string{
		"name":         a.spec.Name,
		"descriptions": a.spec.Descriptions,
		"prompt":       a.spec.Prompt,
		"steps":        numbered(a.spec.Steps),
	})
	msgs := []llm.Message{llm.System(system), llm.User(user.String())}

	var filename string
	out, err := generate(ctx, a.llm, a.Name(), msgs, a.opts.retries, func(s string) error {
		filename = firstLine(contract.Sections(s)["Filename"])
		if filename == "" {
			return nil
		}
		_, err := contract.ParseFileBlock(s)
		return err
	})
	if err != nil {
		return core.Message{}, err
	}

	msg := in.Reply(a.Name(), out)
	if filename != "" {
		msg = msg.WithInstruct(core.InstructContent{Type: core.InstructTypeFile, Key: filename})
	}
	return msg, nil
}

func (a *Custom) callTools(ctx context.Context, input string) (string, error) {
	var b strings.Builder
	for _, t := range a.tools {
		ctx, span := telemetry.Tracer().Start(ctx, "tool.call")
		out, err := t.Call(ctx, input)
		span.SetAttributes(telemetry.ToolAttributes(t.Name(), toolSource(t), err == nil)...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			if errors.As(err).Code == errors.CodeInternal {
				err = errors.New(errors.CodeToolFailure, "tool call failed", err)
			}
			return "", errors.As(err).WithContext("tool", t.Name()).WithContext("role", a.spec.Name)
		}
		span.End()
		fmt.Fprintf(&b, "### %s\n%v\n", t.Name(), out)
	}
	return strings.TrimSpace(b.String()), nil
}

type describer interface{ Description() string }

func toolSource(t core.Tool) string {
	if _, ok := t.(describer); ok {
		return "mcp"
	}
	return "local"
}

func tail(msgs []core.Message, n int) []core.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.Trim(strings.TrimSpace(line), "`*\"'")
}
