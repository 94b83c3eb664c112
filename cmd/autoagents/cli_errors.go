// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/jllopis/autoagents/pkg/errors"
)

// hints maps error codes to a suggestion printed under the error.
var hints = map[errors.ErrorCode]string{
	errors.CodeBudgetExceeded:    "raise --investment or cost.budget",
	errors.CodeLLMError:          "check llm.provider, llm.api_key and network access, or try --mock",
	errors.CodeProtocolViolation: "the model answered outside the expected format; raise run.contract_retries or use a stronger model",
	errors.CodeToolFailure:       "check tools.serpapi_key and the mcp.servers commands",
	errors.CodeContextLost:       "the run was interrupted",
}

// printError writes err with its code and a hint when one is known.
func printError(w io.Writer, err error) {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %v\n", e.Code, err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", hint)
	}
}

// hintFor returns the hint of the outermost coded error that has one.
func hintFor(err error) string {
	for err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) {
			return ""
		}
		if hint, ok := hints[e.Code]; ok {
			return hint
		}
		err = e.Err
	}
	return ""
}
