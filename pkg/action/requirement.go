// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"context"
	"strings"

	"github.com/jllopis/autoagents/pkg/core"
)

// Requirement hands work to a role. Its tag is what the target role watches;
// running it publishes the selector's instruction under that tag, addressed
// to the target.
type Requirement struct {
	tag    string
	target string
}

// NewRequirement creates a requirement with the given tag. target, when not
// empty, is the profile the emitted message is addressed to.
func NewRequirement(tag, target string) *Requirement {
	return &Requirement{tag: tag, target: target}
}

// RequirementTagFor returns the per-role requirement tag for a role name:
// spaces become underscores and "Requirement" is appended.
func RequirementTagFor(roleName string) string {
	return strings.ReplaceAll(strings.TrimSpace(roleName), " ", "_") + RequirementTag
}

func (r *Requirement) Name() string { return r.tag }

// Target returns the profile this requirement addresses.
func (r *Requirement) Target() string { return r.target }

// Watches returns nil: a requirement fires on whatever its owner watches.
func (r *Requirement) Watches() []string { return nil }

// Run emits the instruction. Without an instruction the latest observed
// content is forwarded.
func (r *Requirement) Run(_ context.Context, in Input) (core.Message, error) {
	content := in.Instruction
	if content == "" {
		if latest, ok := in.Latest(); ok {
			content = latest.Content
		}
	}
	msg := in.Reply(r.tag, content)
	if r.target != "" {
		msg = msg.WithSendTo(r.target)
	}
	return msg, nil
}
