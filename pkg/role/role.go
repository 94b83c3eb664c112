// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package role implements the agents of the orchestration. A Role owns an
// ordered set of actions and a watch set; once per round it observes the
// messages published since its last turn and fires the first eligible action.
package role

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

// Observation is what a role sees when it asks the environment for news.
type Observation struct {
	// Batch holds the messages from the requested index up to the round
	// horizon.
	Batch []core.Message
	// History holds every message up to the round horizon.
	History []core.Message
	// Next is the watermark to resume from on the following turn.
	Next int
}

// Env is the role's non-owning handle on its environment.
type Env interface {
	Observe(from int) Observation
	PublishMessage(ctx context.Context, msg core.Message) error
	Steps() []string
}

// Selector picks the action to run from the observed news. It may also return
// an instruction for the action. A nil action means the role stays idle.
type Selector interface {
	Select(ctx context.Context, r *Role, news, history []core.Message) (action.Action, string, error)
}

// Role is an agent. Identity is its profile, which must be unique within an
// environment.
type Role struct {
	name        string
	profile     string
	goal        string
	constraints string
	actions     []action.Action
	watch       map[string]struct{}
	selector    Selector
	metrics     *telemetry.Metrics

	mu        sync.Mutex
	env       Env
	watermark int
	roundsRun int
}

// Option configures a Role.
type Option func(*Role)

// WithGoal sets the role goal.
func WithGoal(goal string) Option {
	return func(r *Role) { r.goal = goal }
}

// WithConstraints sets the role constraints.
func WithConstraints(c string) Option {
	return func(r *Role) { r.constraints = c }
}

// WithActions appends actions in declaration order.
func WithActions(actions ...action.Action) Option {
	return func(r *Role) { r.actions = append(r.actions, actions...) }
}

// WithWatch adds tags to the watch set.
func WithWatch(tags ...string) Option {
	return func(r *Role) {
		for _, t := range tags {
			r.watch[t] = struct{}{}
		}
	}
}

// WithSelector replaces first-match action selection.
func WithSelector(s Selector) Option {
	return func(r *Role) { r.selector = s }
}

// WithMetrics records role turns on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Role) { r.metrics = m }
}

// New creates a role. Without WithWatch the watch set is the union of the
// actions' declared watches.
func New(name, profile string, opts ...Option) *Role {
	r := &Role{
		name:     name,
		profile:  profile,
		watch:    make(map[string]struct{}),
		selector: FirstMatch{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if len(r.watch) == 0 {
		for _, a := range r.actions {
			for _, t := range a.Watches() {
				r.watch[t] = struct{}{}
			}
		}
	}
	return r
}

func (r *Role) Name() string    { return r.name }
func (r *Role) Profile() string { return r.profile }
func (r *Role) Goal() string    { return r.goal }

// Actions returns the actions in declaration order.
func (r *Role) Actions() []action.Action {
	return append([]action.Action(nil), r.actions...)
}

// Watch returns the watch set.
func (r *Role) Watch() map[string]struct{} {
	out := make(map[string]struct{}, len(r.watch))
	for k := range r.watch {
		out[k] = struct{}{}
	}
	return out
}

// Watches reports whether tag is in the watch set.
func (r *Role) Watches(tag string) bool {
	_, ok := r.watch[tag]
	return ok
}

// SetEnv records the environment handle. It may only be called once.
func (r *Role) SetEnv(env Env) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.env != nil {
		return errors.New(errors.CodeInvalidInput, "role environment already set", nil).
			WithContext("profile", r.profile)
	}
	r.env = env
	return nil
}

// RoundsRun returns how many times Run has been invoked.
func (r *Role) RoundsRun() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roundsRun
}

// Watermark returns the index of the next unobserved message.
func (r *Role) Watermark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watermark
}

// Run takes one turn: observe, select, act, publish. It reports whether an
// action ran. The watermark advances over the whole observed batch whether or
// not anything matched.
func (r *Role) Run(ctx context.Context) (bool, error) {
	r.mu.Lock()
	r.roundsRun++
	env, from := r.env, r.watermark
	r.mu.Unlock()

	if env == nil {
		return false, errors.New(errors.CodeInvalidInput, "role has no environment", nil).
			WithContext("profile", r.profile)
	}

	obs := env.Observe(from)
	r.mu.Lock()
	r.watermark = obs.Next
	r.mu.Unlock()

	news := r.filter(obs.Batch)
	if len(news) == 0 {
		return false, nil
	}

	act, instruction, err := r.selector.Select(ctx, r, news, obs.History)
	if err != nil {
		return false, r.wrap(err, "")
	}
	if act == nil {
		return false, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "role.act")
	defer span.End()
	span.SetAttributes(telemetry.RoleAttributes(r.name, r.profile, act.Name())...)

	slog.Default().InfoContext(ctx, "role.act",
		slog.String("role", r.name),
		slog.String("profile", r.profile),
		slog.String("action", act.Name()),
		slog.Int("news", len(news)),
	)

	msg, err := act.Run(ctx, action.Input{
		RoleName:    r.name,
		Profile:     r.profile,
		Goal:        r.goal,
		News:        news,
		History:     obs.History,
		Steps:       env.Steps(),
		Instruction: instruction,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, r.wrap(err, act.Name())
	}
	r.metrics.RecordRoleAct(ctx, r.profile, act.Name())

	if err := env.PublishMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return true, r.wrap(err, act.Name())
	}
	return true, nil
}

// filter keeps messages whose tag is watched and which are not addressed to
// another role.
func (r *Role) filter(batch []core.Message) []core.Message {
	var out []core.Message
	for _, m := range batch {
		if _, ok := r.watch[m.CauseBy]; !ok {
			continue
		}
		if m.SendTo != "" && m.SendTo != r.profile {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *Role) wrap(err error, act string) error {
	e := errors.As(err).WithContext("role", r.profile)
	if act != "" {
		e = e.WithContext("action", act)
	}
	return e
}

// FirstMatch selects the first action, in declaration order, whose watches
// intersect the tags of the news. Actions without declared watches use the
// role's watch set.
type FirstMatch struct{}

func (FirstMatch) Select(_ context.Context, r *Role, news, _ []core.Message) (action.Action, string, error) {
	tags := core.Tags(news)
	for _, a := range r.actions {
		watches := a.Watches()
		if watches == nil {
			watches = r.watchList()
		}
		if action.Matches(watches, tags) {
			return a, "", nil
		}
	}
	return nil, "", nil
}

func (r *Role) watchList() []string {
	out := make([]string, 0, len(r.watch))
	for k := range r.watch {
		out = append(out, k)
	}
	return out
}
