// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package role

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/contract"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/telemetry"
	"github.com/jllopis/autoagents/pkg/tools"
)

// Profiles of the built-in roles. The environment keys its privileged hooks
// on the producer profile of published messages.
const (
	HumanProfile          = "Human"
	ManagerProfile        = "Manager"
	AgentsObserverProfile = "Agents Observer"
	PlanObserverProfile   = "Plan Observer"
	ActionObserverProfile = "ActionObserver"
)

// Factory builds the built-in roles and the roles spawned from role specs.
// Tools resolve to nothing and requirements use the generic variant when
// unset. A nil Completer makes every LLM-backed action fail with
// INVALID_INPUT.
type Factory struct {
	Completer     action.Completer
	Tools         *tools.Registry
	Requirements  *RequirementRegistry
	ActionOptions []action.Option
	Metrics       *telemetry.Metrics
}

// Manager creates the role that drafts the roster and plan from the idea.
func (f Factory) Manager() *Role {
	opts := append([]action.Option(nil), f.ActionOptions...)
	if names := f.Tools.Names(); len(names) > 0 {
		opts = append(opts, action.WithToolNames(names...))
	}
	return New("Ethan", ManagerProfile,
		WithGoal("Select or create the expert roles and draft an execution plan for the task"),
		WithConstraints("Roles must be minimal, complementary and able to use the listed tools only"),
		WithActions(action.NewCreateRoles(f.Completer, opts...)),
		WithMetrics(f.Metrics),
	)
}

// AgentsObserver creates the role that reviews the roster.
func (f Factory) AgentsObserver() *Role {
	return New("Eric", AgentsObserverProfile,
		WithGoal("Check that the roster covers the task without overlap"),
		WithActions(action.NewCheckRoles(f.Completer, f.ActionOptions...)),
		WithMetrics(f.Metrics),
	)
}

// PlanObserver creates the role that reviews the plan.
func (f Factory) PlanObserver() *Role {
	return New("Gary", PlanObserverProfile,
		WithGoal("Check that every plan step is assigned to a role and correctly ordered"),
		WithActions(action.NewCheckPlans(f.Completer, f.ActionOptions...)),
		WithMetrics(f.Metrics),
	)
}

// Builtins returns the initial hire: manager and both observers.
func (f Factory) Builtins() []*Role {
	return []*Role{f.Manager(), f.AgentsObserver(), f.PlanObserver()}
}

// Custom creates a role from spec. It watches its requirement tag and runs a
// single custom action. Tools named by the spec that the registry cannot
// resolve are logged and skipped.
func (f Factory) Custom(spec contract.RoleSpec) *Role {
	found, missing := f.Tools.Resolve(spec.Tools)
	if len(missing) > 0 {
		slog.Default().Warn("role.tools.unresolved",
			slog.String("role", spec.Name),
			slog.Any("tools", missing),
		)
	}
	req := f.Requirements.For(spec.Name)
	return New(spec.Name, spec.Name,
		WithGoal(spec.Descriptions),
		WithActions(action.NewCustom(spec, f.Completer, found, f.ActionOptions...)),
		WithWatch(req.Name()),
		WithMetrics(f.Metrics),
	)
}

// ActionObserver creates the coordinator for spawned roles. It watches the
// spawned roles' action tags plus the seed requirement, and its actions are
// the spawned roles' requirements, fired one plan step at a time.
func (f Factory) ActionObserver(spawned []*Role, steps []string) *Role {
	sel := &dispatchSelector{
		dispatcher: action.NewDispatcher(f.Completer, f.ActionOptions...),
		steps:      append([]string(nil), steps...),
		reqs:       make(map[string]action.Action, len(spawned)),
	}
	watch := []string{action.RequirementTag}
	var reqs []action.Action
	for _, r := range spawned {
		for _, a := range r.actions {
			watch = append(watch, a.Name())
		}
		req := f.Requirements.For(r.name)
		reqs = append(reqs, req)
		sel.roles = append(sel.roles, r.name)
		sel.reqs[r.name] = req
	}
	return New("Tom", ActionObserverProfile,
		WithGoal("Drive the execution plan step by step through the spawned roles"),
		WithActions(reqs...),
		WithWatch(watch...),
		WithSelector(sel),
		WithMetrics(f.Metrics),
	)
}

// Spawn creates one role per spec plus their ActionObserver. The observer is
// always created; with no specs it has nothing to dispatch to.
func (f Factory) Spawn(specs []contract.RoleSpec, steps []string) []*Role {
	out := make([]*Role, 0, len(specs)+1)
	for _, spec := range specs {
		out = append(out, f.Custom(spec))
	}
	return append(out, f.ActionObserver(out, steps))
}

// dispatchSelector advances through the plan, one step per turn.
type dispatchSelector struct {
	dispatcher *action.Dispatcher
	roles      []string
	steps      []string
	reqs       map[string]action.Action

	mu       sync.Mutex
	next     int
	finished bool
}

func (s *dispatchSelector) Select(ctx context.Context, r *Role, _, history []core.Message) (action.Action, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, "", nil
	}
	d, err := s.dispatcher.Decide(ctx, action.DispatchRequest{
		Roles:   s.roles,
		Steps:   s.steps,
		Next:    s.next,
		History: history,
	})
	if err != nil {
		return nil, "", err
	}
	if d.Finished {
		s.finished = true
		slog.Default().InfoContext(ctx, "plan.finished",
			slog.String("profile", r.Profile()),
			slog.Int("steps", len(s.steps)),
		)
		return nil, "", nil
	}
	s.next++
	return s.reqs[d.Role], d.Instruction, nil
}
