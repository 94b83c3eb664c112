// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package action defines the units of work a role can perform and the
// built-in actions of the orchestration: the seed requirement, roster
// creation and review, plan review, the work of dynamically spawned roles and
// the step dispatcher.
package action

import (
	"context"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/llm"
)

// RequirementTag is the tag of the seed message that starts a project.
const RequirementTag = "Requirement"

// Completer is the narrow completion contract actions consume.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message) (string, error)
}

// Action is a unit of reactive work. Name is the tag stamped as CauseBy on the
// message it produces; Watches lists the tags that make it eligible. A nil
// Watches means the action inherits the watch set of the role that owns it.
type Action interface {
	Name() string
	Watches() []string
	Run(ctx context.Context, in Input) (core.Message, error)
}

// Input is everything an action sees when it fires.
type Input struct {
	// RoleName and Profile identify the acting role.
	RoleName string
	Profile  string
	Goal     string
	// News is the batch of newly observed messages that matched the role's
	// watch set, oldest first.
	News []core.Message
	// History is the memory up to the current round horizon.
	History []core.Message
	// Steps is the execution plan known to the environment, if any.
	Steps []string
	// Instruction is set by selectors that decide what the action should do.
	Instruction string
}

// Latest returns the most recent observed message.
func (in Input) Latest() (core.Message, bool) {
	if len(in.News) == 0 {
		return core.Message{}, false
	}
	return in.News[len(in.News)-1], true
}

// Reply builds the outgoing message for action tag, referencing every
// observed message.
func (in Input) Reply(tag, content string) core.Message {
	refs := make([]string, 0, len(in.News))
	for _, m := range in.News {
		refs = append(refs, m.ID)
	}
	return core.NewMessage(in.Profile, tag, content, refs...)
}

// Matches reports whether any of watches occurs in tags.
func Matches(watches []string, tags map[string]struct{}) bool {
	for _, w := range watches {
		if _, ok := tags[w]; ok {
			return true
		}
	}
	return false
}
