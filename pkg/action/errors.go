// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"github.com/jllopis/autoagents/pkg/errors"
)

// WrapLLMError attaches the failing action to a completion error. Errors that
// already carry a code keep it so budget and cancellation stay recognisable.
func WrapLLMError(action string, err error) error {
	if err == nil {
		return nil
	}
	if e := errors.As(err); e.Code != errors.CodeInternal {
		return e.WithContext("action", action)
	}
	return errors.New(errors.CodeLLMError, "action completion failed", err).
		WithContext("action", action)
}
