// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools holds the named tool set that dynamically spawned roles draw
// from, plus the built-in web search tool.
package tools

import (
	"sort"
	"strings"
	"sync"

	"github.com/jllopis/autoagents/pkg/core"
)

// Registry maps tool names, case-insensitively, to tools. Role specs name the
// tools a role may use; names that resolve to nothing are reported back so
// the caller can log them.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
}

// NewRegistry creates a registry holding tools under their own names.
func NewRegistry(tools ...core.Tool) *Registry {
	r := &Registry{tools: make(map[string]core.Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t under its name and any aliases.
func (r *Registry) Register(t core.Tool, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[normalize(t.Name())] = t
	for _, a := range aliases {
		r.tools[normalize(a)] = t
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (core.Tool, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[normalize(name)]
	return t, ok
}

// Resolve maps names to tools, skipping duplicates. Unknown names are
// returned in missing.
func (r *Registry) Resolve(names []string) (found []core.Tool, missing []string) {
	seen := make(map[string]struct{})
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if _, dup := seen[t.Name()]; dup {
			continue
		}
		seen[t.Name()] = struct{}{}
		found = append(found, t)
	}
	return found, missing
}

// Names lists registered keys in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for k := range r.tools {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
