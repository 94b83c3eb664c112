// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// Tool is an external capability a role may invoke while acting.
type Tool interface {
	Name() string
	Call(ctx context.Context, input any) (any, error)
}
