// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/autoagents/pkg/errors"
)

// Metrics tracks orchestration counters: rounds, role turns, publishes,
// dynamically spawned roles, dropped sink records, token usage and errors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	rounds       metric.Int64Counter
	roleActs     metric.Int64Counter
	publishes    metric.Int64Counter
	spawnedRoles metric.Int64Counter
	sinkDropped  metric.Int64Counter
	tokens       metric.Int64Counter
	errors       metric.Int64Counter
}

// NewMetrics creates the orchestration instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("autoagents/orchestration")

	var m Metrics
	var err error
	if m.rounds, err = meter.Int64Counter(
		"autoagents.rounds.total",
		metric.WithDescription("Synchronized rounds executed by kind (regular, catch_up, quiescent)"),
	); err != nil {
		return nil, err
	}
	if m.roleActs, err = meter.Int64Counter(
		"autoagents.role.acts",
		metric.WithDescription("Role turns that ran an action"),
	); err != nil {
		return nil, err
	}
	if m.publishes, err = meter.Int64Counter(
		"autoagents.messages.published",
		metric.WithDescription("Messages appended to the environment memory"),
	); err != nil {
		return nil, err
	}
	if m.spawnedRoles, err = meter.Int64Counter(
		"autoagents.roles.spawned",
		metric.WithDescription("Roles instantiated at runtime from a published plan"),
	); err != nil {
		return nil, err
	}
	if m.sinkDropped, err = meter.Int64Counter(
		"autoagents.sink.dropped",
		metric.WithDescription("Records rejected by a full sink"),
	); err != nil {
		return nil, err
	}
	if m.tokens, err = meter.Int64Counter(
		"autoagents.llm.tokens",
		metric.WithDescription("Completion tokens by model and direction"),
	); err != nil {
		return nil, err
	}
	if m.errors, err = meter.Int64Counter(
		"autoagents.errors.total",
		metric.WithDescription("Errors by code and component"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRound counts one finished round of the given kind.
func (m *Metrics) RecordRound(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.rounds.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRoundKind, kind)))
}

// RecordRoleAct counts a role turn that ran action.
func (m *Metrics) RecordRoleAct(ctx context.Context, profile, action string) {
	if m == nil {
		return
	}
	m.roleActs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrRoleProfile, profile),
		attribute.String(AttrActionName, action),
	))
}

// RecordPublish counts a published message by producer.
func (m *Metrics) RecordPublish(ctx context.Context, producer string) {
	if m == nil {
		return
	}
	m.publishes.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrMessageRole, producer)))
}

// RecordSpawn counts n roles created at runtime.
func (m *Metrics) RecordSpawn(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.spawnedRoles.Add(ctx, int64(n))
}

// RecordSinkDrop counts a record rejected by sink.
func (m *Metrics) RecordSinkDrop(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.sinkDropped.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSinkName, sink)))
}

// RecordTokens counts prompt and completion tokens for model.
func (m *Metrics) RecordTokens(ctx context.Context, model string, prompt, completion int) {
	if m == nil {
		return
	}
	m.tokens.Add(ctx, int64(prompt), metric.WithAttributes(
		attribute.String(AttrLLMModel, model),
		attribute.String(AttrTokenDirection, "input"),
	))
	m.tokens.Add(ctx, int64(completion), metric.WithAttributes(
		attribute.String(AttrLLMModel, model),
		attribute.String(AttrTokenDirection, "output"),
	))
}

// RecordError counts err under component, classified by its code.
func (m *Metrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	e := errors.As(err)
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, string(e.Code)),
		attribute.String(AttrComponent, component),
		attribute.String(AttrRecoverable, e.RecoverableString()),
	))
}
