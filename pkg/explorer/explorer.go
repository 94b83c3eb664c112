// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package explorer is the entry point of a project: it hires the initial
// roles, sets the budget, seeds the idea and drives the environment.
package explorer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jllopis/autoagents/pkg/action"
	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/cost"
	"github.com/jllopis/autoagents/pkg/environment"
	"github.com/jllopis/autoagents/pkg/errors"
	"github.com/jllopis/autoagents/pkg/role"
	"github.com/jllopis/autoagents/pkg/telemetry"
)

// Explorer owns one environment and the tracker that pays for it.
type Explorer struct {
	env     *environment.Environment
	tracker *cost.Tracker
	idea    string
	logger  *slog.Logger
}

// New creates an explorer over env. tracker may be nil when spend is not
// accounted.
func New(env *environment.Environment, tracker *cost.Tracker) *Explorer {
	return &Explorer{
		env:     env,
		tracker: tracker,
		logger:  telemetry.Logger("explorer"),
	}
}

// Environment returns the explorer's environment.
func (x *Explorer) Environment() *environment.Environment { return x.env }

// Idea returns the seeded idea, empty before StartProject.
func (x *Explorer) Idea() string { return x.idea }

// Hire adds roles to the environment, replacing roles with the same profile.
func (x *Explorer) Hire(roles ...*role.Role) error {
	for _, r := range roles {
		if err := x.env.AddRole(r); err != nil {
			return err
		}
		x.logger.Info("explorer.hire",
			slog.String("role", r.Name()),
			slog.String("profile", r.Profile()),
		)
	}
	return nil
}

// Invest sets the budget ceiling. Completions fail with BUDGET_EXCEEDED once
// the spend reaches it.
func (x *Explorer) Invest(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.New(errors.CodeInvalidInput, "investment must not be negative", nil).
			WithContext("amount", amount.String())
	}
	if x.tracker == nil {
		return errors.New(errors.CodeInvalidInput, "explorer has no cost tracker", nil)
	}
	x.tracker.SetBudget(amount)
	x.logger.Info("explorer.invest", slog.String("budget", amount.StringFixed(2)))
	return nil
}

// StartProject publishes idea as the seed requirement from the human.
func (x *Explorer) StartProject(ctx context.Context, idea string) error {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return errors.New(errors.CodeInvalidInput, "idea is empty", nil)
	}
	x.idea = idea
	ctx, span := telemetry.Tracer().Start(ctx, "explorer.start_project")
	defer span.End()
	span.SetAttributes(telemetry.TaskAttributes(x.env.TaskID(), idea)...)

	x.logger.InfoContext(ctx, "explorer.start",
		slog.String("task_id", x.env.TaskID()),
		slog.String("idea", idea),
	)
	return x.env.PublishMessage(ctx, core.NewMessage(role.HumanProfile, action.RequirementTag, idea))
}

// Run drives the environment for n rounds and logs the spend.
func (x *Explorer) Run(ctx context.Context, n int) error {
	if x.idea == "" {
		return errors.New(errors.CodeInvalidInput, "project not started", nil)
	}
	err := x.env.Run(ctx, n)
	if x.tracker != nil {
		s := x.tracker.Summary()
		x.logger.InfoContext(ctx, "explorer.cost",
			slog.String("task_id", x.env.TaskID()),
			slog.Int("calls", s.Calls),
			slog.Int("prompt_tokens", s.PromptTokens),
			slog.Int("completion_tokens", s.CompletionTokens),
			slog.String("total", s.Total.StringFixed(4)),
			slog.String("budget", s.Budget.StringFixed(2)),
		)
	}
	return err
}

// CostSummary returns the spend so far; the zero Summary without a tracker.
func (x *Explorer) CostSummary() cost.Summary {
	if x.tracker == nil {
		return cost.Summary{}
	}
	return x.tracker.Summary()
}
