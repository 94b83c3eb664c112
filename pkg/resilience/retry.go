// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package resilience provides retry and timeout boundaries around LLM calls,
// MCP requests and transcript writes.
package resilience

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"time"

	"github.com/jllopis/autoagents/pkg/errors"
)

// RetryConfig describes a doubling backoff: attempt n waits
// InitialDelay * 2^(n-1), capped at MaxDelay, then jittered.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Jitter is the fraction of the delay randomised in both directions.
	Jitter float64

	// IsRecoverable decides whether err is worth another attempt.
	// Nil means Recoverable.
	IsRecoverable func(error) bool

	// OnRetry, when set, runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig makes three attempts starting at 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Jitter:       0.1,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a copy with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithMaxDelay returns a copy with MaxDelay set.
func (rc RetryConfig) WithMaxDelay(d time.Duration) RetryConfig {
	rc.MaxDelay = d
	return rc
}

// WithIsRecoverable returns a copy with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// WithOnRetry returns a copy with OnRetry set.
func (rc RetryConfig) WithOnRetry(fn func(attempt int, err error, wait time.Duration)) RetryConfig {
	rc.OnRetry = fn
	return rc
}

// Backoff returns the un-jittered wait before attempt+1, for attempt >= 1.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	wait := rc.InitialDelay
	for i := 1; i < attempt; i++ {
		wait *= 2
		if rc.MaxDelay > 0 && wait >= rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	if rc.MaxDelay > 0 && wait > rc.MaxDelay {
		return rc.MaxDelay
	}
	return wait
}

func (rc RetryConfig) jittered(attempt int) time.Duration {
	wait := rc.Backoff(attempt)
	if rc.Jitter <= 0 || wait <= 0 {
		return wait
	}
	spread := float64(wait) * rc.Jitter
	wait += time.Duration(spread * (2*rand.Float64() - 1))
	return max(wait, 0)
}

// Do calls fn until it succeeds, returns an unrecoverable error or runs out
// of attempts. The last error is returned as is. Cancellation while waiting
// yields CodeContextLost.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	_, err := Value(ctx, rc, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Value is Do for functions that produce a result.
func Value[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	attempts := max(rc.MaxAttempts, 1)
	recoverable := rc.IsRecoverable
	if recoverable == nil {
		recoverable = Recoverable
	}

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || !recoverable(err) {
			return zero, err
		}

		wait := rc.jittered(attempt)
		if rc.OnRetry != nil {
			rc.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.New(errors.CodeContextLost, "context canceled during retry", ctx.Err()).
				WithContext("attempt", attempt).
				WithContext("max_attempts", attempts)
		case <-timer.C:
		}
	}
}

// Recoverable is the default retry predicate. Typed errors carry their own
// flag, so budget and duplicate-profile failures are final; untyped errors
// come from provider transports and are retried.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Recoverable
	}
	return true
}
