// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

type taskIDKey struct{}
type roundKey struct{}

// WithTaskID attaches the project task id to the context.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskID returns the task id if present.
func TaskID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDKey{}).(string)
	return id, ok
}

// WithRound attaches the 1-based scheduler round to the context.
func WithRound(ctx context.Context, round int) context.Context {
	return context.WithValue(ctx, roundKey{}, round)
}

// Round returns the scheduler round, or 0 outside a run.
func Round(ctx context.Context) int {
	r, _ := ctx.Value(roundKey{}).(int)
	return r
}
