// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jllopis/autoagents/pkg/errors"
)

// TimeoutConfig bounds a single operation. A zero Duration disables the bound.
type TimeoutConfig struct {
	Duration time.Duration
}

// WithTimeout runs fn under a context bounded by config.Duration. fn must
// honour the context it receives. When the bound expires the result is
// CodeTimeout, wrapping whatever fn returned.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func(context.Context) error) error {
	if config.Duration <= 0 {
		return fn(ctx)
	}

	bounded, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	err := fn(bounded)
	if ctx.Err() == nil && stderrors.Is(bounded.Err(), context.DeadlineExceeded) {
		cause := err
		if cause == nil {
			cause = bounded.Err()
		}
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", cause).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	}
	return err
}
