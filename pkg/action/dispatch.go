// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"strconv"
	"strings"

	"github.com/jllopis/autoagents/pkg/contract"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/llm"
)

// DispatchRequest is what the dispatcher knows when choosing the next step.
type DispatchRequest struct {
	Roles   []string
	Steps   []string
	Next    int // zero-based index of the step to dispatch
	History []core.Message
}

// Dispatcher decides which spawned role performs the next plan step. Steps
// that name exactly one known role are dispatched without a completion; the
// rest are delegated to the model.
type Dispatcher struct {
	llm  Completer
	opts options
}

// NewDispatcher creates a dispatcher. c may be nil when every step names its
// role.
func NewDispatcher(c Completer, opts ...Option) *Dispatcher {
	return &Dispatcher{llm: c, opts: buildOptions(opts)}
}

// Decide returns the dispatch for req.Next. Past the last step, or with no
// roles to dispatch to, it reports Finished.
func (d *Dispatcher) Decide(ctx context.Context, req DispatchRequest) (contract.Dispatch, error) {
	if req.Next >= len(req.Steps) || len(req.Roles) == 0 {
		return contract.Dispatch{Finished: true}, nil
	}
	step := req.Steps[req.Next]
	if role, ok := NamedRole(step, req.Roles); ok {
		return contract.Dispatch{Role: role, Instruction: step}, nil
	}
	if d.llm == nil {
		return contract.Dispatch{}, contract.Violation("step does not name a known role", nil).
			WithContext("step", step)
	}

	system := render(dispatchPrompt, map[string]string{
		"roles": strings.Join(req.Roles, ", "),
		"steps": numbered(req.Steps),
		"next":  strconv.Itoa(req.Next+1) + ". " + step,
	})
	msgs := []llm.Message{
		llm.System(system),
		llm.User(transcript(tail(req.History, contextWindow))),
	}
	var decision contract.Dispatch
	_, err := generate(ctx, d.llm, "NextStep", msgs, d.opts.retries, func(s string) error {
		dsp, err := contract.ParseDispatch(s)
		if err != nil {
			return err
		}
		if !dsp.Finished {
			role, ok := canonicalRole(dsp.Role, req.Roles)
			if !ok {
				return contract.Violation("dispatch names an unknown role", nil).WithContext("role", dsp.Role)
			}
			dsp.Role = role
			if dsp.Instruction == "" {
				dsp.Instruction = step
			}
		}
		decision = dsp
		return nil
	})
	if err != nil {
		return contract.Dispatch{}, err
	}
	return decision, nil
}

// NamedRole returns the role a step is assigned to. A leading "<role>:"
// prefix wins; otherwise the role whose name appears earliest in the step.
func NamedRole(step string, roles []string) (string, bool) {
	if prefix, _, ok := strings.Cut(step, ":"); ok {
		if role, found := canonicalRole(strings.Trim(strings.TrimSpace(prefix), "*`"), roles); found {
			return role, true
		}
	}
	lower := strings.ToLower(step)
	best, bestAt := "", -1
	for _, r := range roles {
		at := strings.Index(lower, strings.ToLower(r))
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(r) > len(best)) {
			best, bestAt = r, at
		}
	}
	return best, bestAt >= 0
}

func canonicalRole(name string, roles []string) (string, bool) {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(name), r) {
			return r, true
		}
	}
	return "", false
}
