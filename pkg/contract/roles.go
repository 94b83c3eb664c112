// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var objectRe = regexp.MustCompile(`{[\s\S]*?}`)

// RoleSpec describes a role the Agents Observer asks the environment to spawn.
type RoleSpec struct {
	Name         string   `json:"name" yaml:"name"`
	Descriptions string   `json:"descriptions" yaml:"descriptions"`
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Tools        []string `json:"tools" yaml:"tools"`
	Steps        []string `json:"steps" yaml:"steps"`
}

// ParseRoleSpecs extracts every {...} object from text. Objects inside fenced
// blocks take precedence over loose prose. Strict JSON is tried first; YAML
// flow syntax covers the JSON-like variants models tend to emit (single
// quotes, unquoted keys). Empty objects are skipped.
func ParseRoleSpecs(text string) ([]RoleSpec, error) {
	scope := text
	if blocks := FencedBlocks(text); len(blocks) > 0 {
		scope = strings.Join(blocks, "\n")
	}
	objects := objectRe.FindAllString(scope, -1)
	if len(objects) == 0 {
		return nil, Violation("no role specification objects found", nil)
	}

	specs := make([]RoleSpec, 0, len(objects))
	for i, raw := range objects {
		raw = strings.TrimSpace(raw)
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			if yerr := yaml.Unmarshal([]byte(raw), &fields); yerr != nil {
				return nil, Violation("malformed role specification", err).
					WithContext("index", i).
					WithContext("object", raw)
			}
		}
		if len(fields) == 0 {
			continue
		}
		spec, err := decodeRoleSpec(raw)
		if err != nil {
			return nil, Violation("malformed role specification", err).
				WithContext("index", i)
		}
		if strings.TrimSpace(spec.Name) == "" {
			return nil, Violation("role specification without name", nil).
				WithContext("index", i)
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, Violation("role specification list is empty", nil)
	}
	return specs, nil
}

func decodeRoleSpec(raw string) (RoleSpec, error) {
	var spec RoleSpec
	if err := json.Unmarshal([]byte(raw), &spec); err == nil {
		return spec, nil
	}
	err := yaml.Unmarshal([]byte(raw), &spec)
	return spec, err
}
