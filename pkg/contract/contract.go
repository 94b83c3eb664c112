// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package contract parses the structured parts of model output: execution
// plans, role rosters, fenced files and dispatch decisions. Parsers never
// panic; a malformed input yields a PROTOCOL_VIOLATION error so callers can
// choose between regenerating and aborting.
package contract

import (
	"regexp"
	"strings"

	"github.com/jllopis/autoagents/pkg/errors"
)

// PlanHeading introduces the numbered execution plan in Plan Observer output.
const PlanHeading = "## Revised Execution Plan"

var (
	planSectionRe = regexp.MustCompile(`## Revised Execution Plan([\s\S]*?)##`)
	planItemRe    = regexp.MustCompile(`\n\d+\. `)
	fenceOpenRe   = regexp.MustCompile("```(.*?)\n")
	fenceBlockRe  = regexp.MustCompile("```[^\n]*\n([\\s\\S]*?)```")
	sectionRe     = regexp.MustCompile(`(?m)^##\s*(.+?)\s*:?\s*$`)
)

// Violation builds a protocol violation error. Violations are recoverable:
// regenerating the model output may fix them.
func Violation(msg string, cause error) *errors.Error {
	return errors.New(errors.CodeProtocolViolation, msg, cause).WithRecoverable(true)
}

// ParsePlan extracts the step list that follows PlanHeading up to the next
// "##" heading. Each numbered entry contributes its first line.
func ParsePlan(text string) ([]string, error) {
	match := planSectionRe.FindStringSubmatch(text)
	if match == nil {
		return nil, Violation("execution plan heading not found", nil).
			WithContext("heading", PlanHeading)
	}
	parts := planItemRe.Split(match[1], -1)
	if len(parts) < 2 {
		return nil, Violation("execution plan has no numbered steps", nil)
	}
	steps := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		line, _, _ := strings.Cut(part, "\n")
		steps = append(steps, strings.TrimSpace(line))
	}
	return steps, nil
}

// Sections splits markdown-ish output into "## Heading" sections. Keys are
// the heading text; values are trimmed bodies. Text before the first heading
// is dropped.
func Sections(text string) map[string]string {
	out := make(map[string]string)
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		name := strings.TrimSpace(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[name] = strings.TrimSpace(text[loc[1]:end])
	}
	return out
}

// FencedBlocks returns the bodies of every fenced code block in text.
func FencedBlocks(text string) []string {
	matches := fenceBlockRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
