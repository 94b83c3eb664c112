// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/jllopis/autoagents/pkg/errors"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil Metrics")
	}
}

func TestMetricsRecord(t *testing.T) {
	m, _ := NewMetrics()
	ctx := context.Background()

	m.RecordRound(ctx, RoundRegular)
	m.RecordRound(ctx, RoundCatchUp)
	m.RecordRoleAct(ctx, "Manager", "CreateRoles")
	m.RecordPublish(ctx, "Human")
	m.RecordSpawn(ctx, 3)
	m.RecordSpawn(ctx, 0)
	m.RecordSinkDrop(ctx, "channel")
	m.RecordTokens(ctx, "gpt-4o", 120, 30)
	m.RecordError(ctx, errors.New(errors.CodeProtocolViolation, "bad plan", nil), "environment")
	m.RecordError(ctx, stderrors.New("generic"), "role")
	m.RecordError(ctx, nil, "role")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordRound(ctx, RoundQuiescent)
	m.RecordRoleAct(ctx, "x", "y")
	m.RecordPublish(ctx, "x")
	m.RecordSpawn(ctx, 1)
	m.RecordSinkDrop(ctx, "x")
	m.RecordTokens(ctx, "m", 1, 1)
	m.RecordError(ctx, stderrors.New("x"), "x")
}
