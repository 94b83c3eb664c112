// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package core defines the value types exchanged between roles: messages,
// structured instructions and the tool contract.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InstructTypeFile marks an instruction payload that carries a file.
const InstructTypeFile = "FILE"

// InstructContent is the optional structured payload attached to a message.
type InstructContent struct {
	Type   string            `json:"type"`
	Key    string            `json:"key,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// IsFile reports whether the payload announces a file.
func (ic *InstructContent) IsFile() bool {
	return ic != nil && strings.Contains(ic.Type, InstructTypeFile)
}

// Message is the unit of communication between roles. Values are immutable
// once built; use NewMessage and the With* helpers which return copies.
type Message struct {
	ID              string           `json:"id"`
	Role            string           `json:"role"`
	CauseBy         string           `json:"cause_by"`
	Content         string           `json:"content"`
	InstructContent *InstructContent `json:"instruct_content,omitempty"`
	CausalRefs      []string         `json:"causal_refs,omitempty"`
	SendTo          string           `json:"send_to,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewMessage builds a message produced by role as the outcome of causeBy.
func NewMessage(role, causeBy, content string, refs ...string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       role,
		CauseBy:    causeBy,
		Content:    content,
		CausalRefs: append([]string(nil), refs...),
		CreatedAt:  time.Now().UTC(),
	}
}

// WithInstruct returns a copy of m carrying ic.
func (m Message) WithInstruct(ic InstructContent) Message {
	fields := make(map[string]string, len(ic.Fields))
	for k, v := range ic.Fields {
		fields[k] = v
	}
	ic.Fields = fields
	m.InstructContent = &ic
	m.CausalRefs = append([]string(nil), m.CausalRefs...)
	return m
}

// WithSendTo returns a copy of m addressed to profile.
func (m Message) WithSendTo(profile string) Message {
	m.SendTo = profile
	m.CausalRefs = append([]string(nil), m.CausalRefs...)
	return m
}

// String renders the message the way it appears in the history transcript.
func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}

// Tags returns the set of tags carried by a batch of messages.
func Tags(msgs []Message) map[string]struct{} {
	out := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m.CauseBy != "" {
			out[m.CauseBy] = struct{}{}
		}
	}
	return out
}
