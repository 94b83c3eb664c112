// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry and slog integration with rich
// attributes for orchestration observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for orchestration telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Task attributes
	AttrTaskID   = "autoagents.task.id"
	AttrTaskIdea = "autoagents.task.idea"

	// Round attributes
	AttrRound       = "autoagents.round.index"
	AttrRoundTotal  = "autoagents.round.total"
	AttrRoundKind   = "autoagents.round.kind"
	AttrRoundRoles  = "autoagents.round.roles"
	AttrRoundActors = "autoagents.round.actors"

	// Role attributes
	AttrRoleName    = "autoagents.role.name"
	AttrRoleProfile = "autoagents.role.profile"
	AttrActionName  = "autoagents.action.name"

	// Message attributes
	AttrMessageID    = "autoagents.message.id"
	AttrMessageRole  = "autoagents.message.role"
	AttrMessageCause = "autoagents.message.cause_by"
	AttrMemoryLen    = "autoagents.memory.length"

	// Tool attributes
	AttrToolName    = "autoagents.tool.name"
	AttrToolSource  = "autoagents.tool.source" // "local", "mcp"
	AttrToolSuccess = "autoagents.tool.success"

	// Sink attributes
	AttrSinkName = "autoagents.sink.name"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMMessages     = "gen_ai.request.messages"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrTokenDirection  = "gen_ai.token.type"

	// Error attributes
	AttrErrorCode   = "error.code"
	AttrComponent   = "component"
	AttrRecoverable = "recoverable"
)

// Round kinds.
const (
	RoundRegular   = "regular"
	RoundCatchUp   = "catch_up"
	RoundQuiescent = "quiescent"
)

// RoundAttributes returns attributes for a scheduler round span.
func RoundAttributes(taskID string, index, total int, kind string, roles int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrRound, index),
		attribute.String(AttrRoundKind, kind),
		attribute.Int(AttrRoundRoles, roles),
	}
	if taskID != "" {
		attrs = append(attrs, attribute.String(AttrTaskID, taskID))
	}
	if total > 0 {
		attrs = append(attrs, attribute.Int(AttrRoundTotal, total))
	}
	return attrs
}

// RoleAttributes returns attributes for a role turn span.
func RoleAttributes(name, profile, action string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRoleProfile, profile),
	}
	if name != "" {
		attrs = append(attrs, attribute.String(AttrRoleName, name))
	}
	if action != "" {
		attrs = append(attrs, attribute.String(AttrActionName, action))
	}
	return attrs
}

// MessageAttributes returns attributes for a publish span.
func MessageAttributes(id, role, causeBy string, memoryLen int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMessageID, id),
		attribute.String(AttrMessageRole, role),
		attribute.String(AttrMessageCause, causeBy),
		attribute.Int(AttrMemoryLen, memoryLen),
	}
}

// ToolAttributes returns attributes for a tool call span.
func ToolAttributes(name, source string, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrToolName, name),
		attribute.String(AttrToolSource, source),
		attribute.Bool(AttrToolSuccess, success),
	}
}

// LLMAttributes returns attributes for completion spans.
func LLMAttributes(model string, msgCount, inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrLLMMessages, msgCount),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	return attrs
}

// TaskAttributes returns attributes for a project run.
func TaskAttributes(taskID, idea string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if taskID != "" {
		attrs = append(attrs, attribute.String(AttrTaskID, taskID))
	}
	if idea != "" {
		// Truncate long ideas
		if len(idea) > 200 {
			idea = idea[:200] + "..."
		}
		attrs = append(attrs, attribute.String(AttrTaskIdea, idea))
	}
	return attrs
}
