// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package role

import (
	"strings"
	"sync"

	"github.com/jllopis/autoagents/pkg/action"
)

// RequirementCtor builds the requirement action that hands work to roleName.
type RequirementCtor func(roleName string) action.Action

// RequirementRegistry maps a role kind to the constructor of its requirement
// action. Kinds without an entry get the generic per-role requirement, tagged
// "<Kind>Requirement" and addressed to the role.
type RequirementRegistry struct {
	mu       sync.RWMutex
	ctors    map[string]RequirementCtor
	fallback RequirementCtor
}

// NewRequirementRegistry creates a registry with the generic fallback.
func NewRequirementRegistry() *RequirementRegistry {
	return &RequirementRegistry{
		ctors:    make(map[string]RequirementCtor),
		fallback: GenericRequirement,
	}
}

// GenericRequirement is the default requirement variant.
func GenericRequirement(roleName string) action.Action {
	return action.NewRequirement(action.RequirementTagFor(roleName), roleName)
}

// Kind returns the registry key for a role name.
func Kind(roleName string) string {
	return strings.ReplaceAll(strings.TrimSpace(roleName), " ", "_")
}

// Register installs ctor for kind, replacing any previous entry.
func (r *RequirementRegistry) Register(kind string, ctor RequirementCtor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[Kind(kind)] = ctor
}

// For returns the requirement action for roleName.
func (r *RequirementRegistry) For(roleName string) action.Action {
	if r == nil {
		return GenericRequirement(roleName)
	}
	r.mu.RLock()
	ctor, ok := r.ctors[Kind(roleName)]
	r.mu.RUnlock()
	if !ok {
		ctor = r.fallback
	}
	return ctor(roleName)
}
