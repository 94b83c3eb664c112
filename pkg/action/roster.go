// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"strings"

	"github.com/jllopis/autoagents/pkg/contract"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/llm"
)

// Tags of the privileged actions.
const (
	CreateRolesTag = "CreateRoles"
	CheckRolesTag  = "CheckRoles"
	CheckPlansTag  = "CheckPlans"
)

// Option configures the privileged actions.
type Option func(*options)

type options struct {
	retries int
	tools   []string
}

// WithContractRetries sets how many regenerations a contract failure earns.
func WithContractRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithToolNames lists the tools the manager may hand to new roles.
func WithToolNames(names ...string) Option {
	return func(o *options) { o.tools = append(o.tools, names...) }
}

func buildOptions(opts []Option) options {
	o := options{retries: DefaultContractRetries}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CreateRoles is the manager's action: from the task idea it proposes a role
// roster and a draft plan. The answer must contain at least one role spec.
type CreateRoles struct {
	llm  Completer
	opts options
}

// NewCreateRoles creates the manager action.
func NewCreateRoles(c Completer, opts ...Option) *CreateRoles {
	return &CreateRoles{llm: c, opts: buildOptions(opts)}
}

func (a *CreateRoles) Name() string      { return CreateRolesTag }
func (a *CreateRoles) Watches() []string { return []string{RequirementTag} }

func (a *CreateRoles) Run(ctx context.Context, in Input) (core.Message, error) {
	idea := ""
	if latest, ok := in.Latest(); ok {
		idea = latest.Content
	}
	tools := "(none)"
	if len(a.opts.tools) > 0 {
		tools = strings.Join(a.opts.tools, ", ")
	}
	msgs := []llm.Message{
		llm.System(render(createRolesPrompt, map[string]string{"tools": tools})),
		llm.User("Task: " + idea),
	}
	out, err := generate(ctx, a.llm, a.Name(), msgs, a.opts.retries, func(s string) error {
		_, err := contract.ParseRoleSpecs(s)
		return err
	})
	if err != nil {
		return core.Message{}, err
	}
	return in.Reply(a.Name(), out), nil
}

// CheckRoles is the Agents Observer's action: it reviews the manager's roster
// and must answer with parseable role specs, which the environment stages for
// spawning.
type CheckRoles struct {
	llm  Completer
	opts options
}

// NewCheckRoles creates the roster review action.
func NewCheckRoles(c Completer, opts ...Option) *CheckRoles {
	return &CheckRoles{llm: c, opts: buildOptions(opts)}
}

func (a *CheckRoles) Name() string      { return CheckRolesTag }
func (a *CheckRoles) Watches() []string { return []string{CreateRolesTag} }

func (a *CheckRoles) Run(ctx context.Context, in Input) (core.Message, error) {
	msgs := []llm.Message{
		llm.System(checkRolesPrompt),
		llm.User(transcript(in.History)),
	}
	out, err := generate(ctx, a.llm, a.Name(), msgs, a.opts.retries, func(s string) error {
		_, err := contract.ParseRoleSpecs(s)
		return err
	})
	if err != nil {
		return core.Message{}, err
	}
	return in.Reply(a.Name(), out), nil
}

// CheckPlans is the Plan Observer's action: it reviews the draft plan against
// the checked roster and must answer with a revised execution plan.
type CheckPlans struct {
	llm  Completer
	opts options
}

// NewCheckPlans creates the plan review action.
func NewCheckPlans(c Completer, opts ...Option) *CheckPlans {
	return &CheckPlans{llm: c, opts: buildOptions(opts)}
}

func (a *CheckPlans) Name() string      { return CheckPlansTag }
func (a *CheckPlans) Watches() []string { return []string{CheckRolesTag} }

func (a *CheckPlans) Run(ctx context.Context, in Input) (core.Message, error) {
	msgs := []llm.Message{
		llm.System(checkPlansPrompt),
		llm.User(transcript(in.History)),
	}
	out, err := generate(ctx, a.llm, a.Name(), msgs, a.opts.retries, func(s string) error {
		_, err := contract.ParsePlan(s)
		return err
	})
	if err != nil {
		return core.Message{}, err
	}
	return in.Reply(a.Name(), out), nil
}
