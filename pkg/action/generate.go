// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/llm"
)

// DefaultContractRetries is how many times a privileged action regenerates
// output that fails its contract.
const DefaultContractRetries = 2

// generate completes msgs and validates the answer. Contract violations are
// fed back to the model and the answer regenerated up to retries times; other
// errors return immediately.
func generate(ctx context.Context, c Completer, name string, msgs []llm.Message, retries int, validate func(string) error) (string, error) {
	if c == nil {
		return "", errors.New(errors.CodeInvalidInput, "no completer configured", nil).
			WithContext("action", name)
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		out, err := c.Complete(ctx, msgs)
		if err != nil {
			return "", WrapLLMError(name, err)
		}
		if validate == nil {
			return out, nil
		}
		verr := validate(out)
		if verr == nil {
			return out, nil
		}
		if !errors.HasCode(verr, errors.CodeProtocolViolation) {
			return "", verr
		}
		lastErr = verr
		slog.Default().WarnContext(ctx, "action.contract.regenerate",
			slog.String("action", name),
			slog.Int("attempt", attempt+1),
			slog.String("error", verr.Error()),
		)
		msgs = append(msgs[:len(msgs):len(msgs)],
			llm.Message{Role: llm.RoleAssistant, Content: out},
			llm.User(fmt.Sprintf(regeneratePrompt, verr.Error())),
		)
	}
	return "", errors.As(lastErr).WithContext("action", name).WithContext("attempts", retries+1)
}

func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func transcript(msgs []core.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func numbered(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, s := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
