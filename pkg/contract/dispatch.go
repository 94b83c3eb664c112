// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package contract

import "strings"

// Dispatch is the ActionObserver decision: who acts next, on what.
type Dispatch struct {
	Role        string
	Instruction string
	Finished    bool
}

// ParseDispatch reads the "## NextRole" and "## Instruction" sections. A
// "## Status" section containing FINISHED marks the plan as complete.
func ParseDispatch(text string) (Dispatch, error) {
	sections := Sections(text)
	if status, ok := sections["Status"]; ok && strings.Contains(strings.ToUpper(status), "FINISHED") {
		return Dispatch{Finished: true}, nil
	}
	role := firstLine(sections["NextRole"])
	if role == "" {
		return Dispatch{}, Violation("dispatch decision without NextRole", nil)
	}
	return Dispatch{
		Role:        role,
		Instruction: sections["Instruction"],
	}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.Trim(strings.TrimSpace(line), "`*\"'")
}
