// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package environment hosts the roles of a project. It owns the shared
// memory, applies the privileged publish hooks (role spawning, file
// extraction, sink forwarding) and schedules roles in rounds.
package environment

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/autoagents/pkg/contract"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/memory"
	"github.com/jllopis/autoagents/pkg/role"
	"github.com/jllopis/autoagents/pkg/sink"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

// DefaultFileCacheSize bounds the parsed file block cache.
const DefaultFileCacheSize = 256

// Environment is the shared space of a project.
type Environment struct {
	mu    sync.RWMutex
	roles map[string]*role.Role
	order []string

	mem *memory.Memory

	state   sync.Mutex
	steps   []string
	pending []contract.RoleSpec
	history []string
	horizon int

	running atomic.Bool

	taskID      string
	factory     role.Factory
	sink        sink.Sink
	files       *lru.Cache[uint64, contract.FileBlock]
	metrics     *telemetry.Metrics
	termination Termination
	maxExtra    int
}

// Option configures an Environment.
type Option func(*Environment)

// WithTaskID sets the task id stamped on sink records.
func WithTaskID(id string) Option {
	return func(e *Environment) { e.taskID = id }
}

// WithFactory sets the factory used to spawn roles from the reviewed roster.
func WithFactory(f role.Factory) Option {
	return func(e *Environment) { e.factory = f }
}

// WithSink sets the outbound record sink.
func WithSink(s sink.Sink) Option {
	return func(e *Environment) { e.sink = s }
}

// WithMetrics records scheduler and publish metrics on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Environment) { e.metrics = m }
}

// WithTermination selects how Run decides on extra rounds. maxExtra caps
// quiescent mode and is ignored otherwise.
func WithTermination(t Termination, maxExtra int) Option {
	return func(e *Environment) {
		e.termination = t
		e.maxExtra = maxExtra
	}
}

// WithFileCacheSize bounds the parsed file cache.
func WithFileCacheSize(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.files, _ = lru.New[uint64, contract.FileBlock](n)
		}
	}
}

// New creates an empty environment.
func New(opts ...Option) *Environment {
	e := &Environment{
		roles:    make(map[string]*role.Role),
		mem:      memory.New(),
		horizon:  -1,
		maxExtra: DefaultMaxExtraRounds,
	}
	e.files, _ = lru.New[uint64, contract.FileBlock](DefaultFileCacheSize)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TaskID returns the task id.
func (e *Environment) TaskID() string { return e.taskID }

// Memory returns the shared memory.
func (e *Environment) Memory() *memory.Memory { return e.mem }

// AddRole registers r under its profile, replacing any role already holding
// it.
func (e *Environment) AddRole(r *role.Role) error {
	if err := r.SetEnv(e); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.roles[r.Profile()]; ok {
		slog.Default().Warn("environment.role.replaced",
			slog.String("profile", r.Profile()),
			slog.String("role", r.Name()),
		)
	} else {
		e.order = append(e.order, r.Profile())
	}
	e.roles[r.Profile()] = r
	return nil
}

// AddRoles adds every role with AddRole.
func (e *Environment) AddRoles(roles ...*role.Role) error {
	for _, r := range roles {
		if err := e.AddRole(r); err != nil {
			return err
		}
	}
	return nil
}

// Register is the strict variant of AddRole: a profile collision is an error
// with code DUPLICATE_PROFILE and leaves the registry untouched.
func (e *Environment) Register(r *role.Role) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, taken := e.roles[r.Profile()]; taken {
		return errors.New(errors.CodeDuplicateProfile, "role profile already registered", nil).
			WithContext("profile", r.Profile())
	}
	if err := r.SetEnv(e); err != nil {
		return err
	}
	e.order = append(e.order, r.Profile())
	e.roles[r.Profile()] = r
	return nil
}

// GetRole returns the role holding profile.
func (e *Environment) GetRole(profile string) (*role.Role, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.roles[profile]
	return r, ok
}

// Roles returns the registered roles in registration order.
func (e *Environment) Roles() []*role.Role {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*role.Role, 0, len(e.order))
	for _, p := range e.order {
		out = append(out, e.roles[p])
	}
	return out
}

// Steps returns the current execution plan.
func (e *Environment) Steps() []string {
	e.state.Lock()
	defer e.state.Unlock()
	return append([]string(nil), e.steps...)
}

// PendingSpecs returns the reviewed role specs not yet spawned.
func (e *Environment) PendingSpecs() []contract.RoleSpec {
	e.state.Lock()
	defer e.state.Unlock()
	return append([]contract.RoleSpec(nil), e.pending...)
}

// History returns the transcript, one "role: content" line per message.
func (e *Environment) History() []string {
	e.state.Lock()
	defer e.state.Unlock()
	return append([]string(nil), e.history...)
}

// Observe returns the messages from index from up to the round horizon. Outside
// a run the horizon is the end of memory.
func (e *Environment) Observe(from int) role.Observation {
	e.state.Lock()
	h := e.horizon
	e.state.Unlock()

	if from < 0 {
		from = 0
	}
	batch := e.mem.Range(from, h)
	return role.Observation{
		Batch:   batch,
		History: e.mem.Range(0, h),
		Next:    from + len(batch),
	}
}

// PublishMessage appends msg to memory and applies the producer hooks. A
// hook failure is returned after the message has been recorded. Memory and
// history are appended under one lock so both keep the same order. A roster
// reviewed by the Agents Observer is forwarded a second time once its specs
// are staged.
func (e *Environment) PublishMessage(ctx context.Context, msg core.Message) error {
	e.state.Lock()
	e.mem.Add(msg)
	e.history = append(e.history, msg.String())
	e.state.Unlock()

	span := trace.SpanFromContext(ctx)
	span.AddEvent("environment.publish", trace.WithAttributes(
		telemetry.MessageAttributes(msg.ID, msg.Role, msg.CauseBy, e.mem.Len())...,
	))
	e.metrics.RecordPublish(ctx, msg.Role)

	slog.Default().DebugContext(ctx, "environment.publish",
		slog.String("task_id", e.taskID),
		slog.String("role", msg.Role),
		slog.String("cause_by", msg.CauseBy),
		slog.Int("round", core.Round(ctx)),
	)

	if strings.Contains(msg.Role, role.PlanObserverProfile) {
		if err := e.spawn(ctx, msg); err != nil {
			return e.hookError(ctx, err, msg)
		}
	}

	var file *sink.File
	if msg.InstructContent.IsFile() {
		block, err := e.fileBlock(msg.Content)
		if err != nil {
			return e.hookError(ctx, err, msg)
		}
		file = &sink.File{FileType: msg.InstructContent.Key, FileData: block.Body}
	}

	if msg.Role != role.ActionObserverProfile {
		e.forward(ctx, msg, file)
	}

	if strings.Contains(msg.Role, role.AgentsObserverProfile) {
		specs, err := contract.ParseRoleSpecs(msg.Content)
		if err != nil {
			return e.hookError(ctx, err, msg)
		}
		e.state.Lock()
		e.pending = specs
		e.state.Unlock()
		e.forward(ctx, msg, nil)
	}
	return nil
}

// spawn parses the reviewed plan and adds the roles built from the pending
// specs. The pending list is consumed.
func (e *Environment) spawn(ctx context.Context, msg core.Message) error {
	steps, err := contract.ParsePlan(msg.Content)
	if err != nil {
		return err
	}
	e.state.Lock()
	e.steps = steps
	specs := e.pending
	e.pending = nil
	e.state.Unlock()

	spawned := e.factory.Spawn(specs, steps)
	for _, r := range spawned {
		if err := e.AddRole(r); err != nil {
			return err
		}
	}
	e.metrics.RecordSpawn(ctx, len(spawned))

	names := make([]string, 0, len(spawned))
	for _, r := range spawned {
		names = append(names, r.Name())
	}
	trace.SpanFromContext(ctx).AddEvent("environment.spawn", trace.WithAttributes(
		attribute.StringSlice(telemetry.AttrRoleName, names),
	))
	slog.Default().InfoContext(ctx, "environment.spawn",
		slog.String("task_id", e.taskID),
		slog.Int("steps", len(steps)),
		slog.Any("roles", names),
	)
	return nil
}

func (e *Environment) fileBlock(content string) (contract.FileBlock, error) {
	key := xxhash.Sum64String(content)
	if block, ok := e.files.Get(key); ok {
		return block, nil
	}
	block, err := contract.ParseFileBlock(content)
	if err != nil {
		return contract.FileBlock{}, err
	}
	e.files.Add(key, block)
	return block, nil
}

// forward pushes msg to the sink. Sink failures are logged and counted, never
// returned.
func (e *Environment) forward(ctx context.Context, msg core.Message, file *sink.File) {
	if e.sink == nil {
		return
	}
	err := e.sink.Enqueue(sink.NewEnvelope(e.taskID, msg, file))
	if err == nil {
		return
	}
	name := sink.NameOf(e.sink)
	e.metrics.RecordSinkDrop(ctx, name)
	slog.Default().WarnContext(ctx, "environment.sink.drop",
		slog.String("task_id", e.taskID),
		slog.String("sink", name),
		slog.String("role", msg.Role),
		slog.Bool("full", errors.HasCode(err, errors.CodeSinkFull)),
		slog.String("error", err.Error()),
	)
}

func (e *Environment) hookError(ctx context.Context, err error, msg core.Message) error {
	wrapped := errors.As(err).
		WithContext("producer", msg.Role).
		WithContext("message_id", msg.ID)
	e.metrics.RecordError(ctx, wrapped, "environment")
	slog.Default().ErrorContext(ctx, "environment.publish.failed",
		slog.String("task_id", e.taskID),
		slog.String("role", msg.Role),
		slog.String("error", wrapped.Error()),
	)
	return wrapped
}

var _ role.Env = (*Environment)(nil)
