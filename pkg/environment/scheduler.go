// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

// Termination selects what happens after the requested rounds.
type Termination int

const (
	// TerminationCatchUp runs 2*len(steps) extra rounds when roles were
	// spawned during the run.
	TerminationCatchUp Termination = iota
	// TerminationQuiescent runs extra rounds until a round passes in which
	// no role acted, capped by the max extra rounds.
	TerminationQuiescent
)

// DefaultMaxExtraRounds caps quiescent termination.
const DefaultMaxExtraRounds = 20

// ParseTermination maps a config value to a Termination.
func ParseTermination(s string) (Termination, error) {
	switch s {
	case "", "catch_up", "catchup":
		return TerminationCatchUp, nil
	case "quiescent":
		return TerminationQuiescent, nil
	default:
		return TerminationCatchUp, errors.New(errors.CodeInvalidInput, "unknown termination mode", nil).
			WithContext("mode", s)
	}
}

func (t Termination) String() string {
	if t == TerminationQuiescent {
		return "quiescent"
	}
	return "catch_up"
}

// Run executes k rounds. Each round snapshots the registry, fixes the
// observation horizon at the current memory length and runs every role
// concurrently; the next round starts only when all roles returned. Any role
// error cancels its siblings and aborts the run.
func (e *Environment) Run(ctx context.Context, k int) error {
	if k <= 0 {
		return errors.New(errors.CodeInvalidInput, "rounds must be positive", nil).
			WithContext("rounds", k)
	}
	if !e.running.CompareAndSwap(false, true) {
		return errors.New(errors.CodeInvalidInput, "environment is already running", nil)
	}
	defer func() {
		e.setHorizon(-1)
		e.running.Store(false)
	}()

	if e.taskID != "" {
		ctx = core.WithTaskID(ctx, e.taskID)
	}
	ctx, span := telemetry.Tracer().Start(ctx, "environment.run")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrTaskID, e.taskID),
		attribute.Int(telemetry.AttrRoundTotal, k),
	)

	log := slog.Default()
	// Catch-up compares against the distinct profiles registered before round 1.
	initial := len(e.Roles())
	start := time.Now()
	log.InfoContext(ctx, "scheduler.run.start",
		slog.String("task_id", e.taskID),
		slog.Int("rounds", k),
		slog.Int("roles", initial),
		slog.String("termination", e.termination.String()),
	)

	round := 0
	acted := 0
	for i := 0; i < k; i++ {
		round++
		n, err := e.round(ctx, round, k, telemetry.RoundRegular)
		if err != nil {
			return e.abort(ctx, span, round, err)
		}
		acted = n
	}

	switch e.termination {
	case TerminationQuiescent:
		for extra := 0; acted > 0 && extra < e.maxExtra; extra++ {
			round++
			n, err := e.round(ctx, round, 0, telemetry.RoundQuiescent)
			if err != nil {
				return e.abort(ctx, span, round, err)
			}
			acted = n
		}
	default:
		if live := len(e.Roles()); live > initial {
			extra := 2 * len(e.Steps())
			log.InfoContext(ctx, "scheduler.catchup",
				slog.String("task_id", e.taskID),
				slog.Int("initial_roles", initial),
				slog.Int("live_roles", live),
				slog.Int("extra_rounds", extra),
			)
			for i := 0; i < extra; i++ {
				round++
				if _, err := e.round(ctx, round, k+extra, telemetry.RoundCatchUp); err != nil {
					return e.abort(ctx, span, round, err)
				}
			}
		}
	}

	log.InfoContext(ctx, "scheduler.run.done",
		slog.String("task_id", e.taskID),
		slog.Int("rounds", round),
		slog.Int("roles", len(e.Roles())),
		slog.Int("messages", e.mem.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// round runs one barrier-synchronised round and returns how many roles acted.
func (e *Environment) round(ctx context.Context, index, total int, kind string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.New(errors.CodeContextLost, "run cancelled", err)
	}
	roles := e.Roles()
	e.setHorizon(e.mem.Len())

	ctx = core.WithRound(ctx, index)
	ctx, span := telemetry.Tracer().Start(ctx, "environment.round")
	defer span.End()
	span.SetAttributes(telemetry.RoundAttributes(e.taskID, index, total, kind, len(roles))...)

	slog.Default().InfoContext(ctx, "scheduler.round.start",
		slog.String("task_id", e.taskID),
		slog.Int("round", index),
		slog.String("kind", kind),
		slog.Int("roles", len(roles)),
	)
	e.metrics.RecordRound(ctx, kind)

	var actors atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range roles {
		g.Go(func() error {
			ok, err := r.Run(gctx)
			if ok {
				actors.Add(1)
			}
			return err
		})
	}
	err := g.Wait()
	span.SetAttributes(attribute.Int64(telemetry.AttrRoundActors, actors.Load()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return int(actors.Load()), err
	}
	return int(actors.Load()), nil
}

func (e *Environment) abort(ctx context.Context, span trace.Span, round int, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.metrics.RecordError(ctx, err, "scheduler")
	slog.Default().ErrorContext(ctx, "scheduler.run.failed",
		slog.String("task_id", e.taskID),
		slog.Int("round", round),
		slog.String("error", err.Error()),
	)
	return errors.As(err).WithContext("round", round)
}

func (e *Environment) setHorizon(h int) {
	e.state.Lock()
	e.horizon = h
	e.state.Unlock()
}
